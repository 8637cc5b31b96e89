// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	JWT struct {
		SecretKey   string `mapstructure:"secret_key"`
		ExpiryHours int    `mapstructure:"expiry_hours"`
	} `mapstructure:"jwt"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig はLLMプロバイダ接続設定。
// キー名は openai.api.key / openai.model / openai.timeout.seconds に対応する。
type OpenAIConfig struct {
	API struct {
		Key string `mapstructure:"key"`
	} `mapstructure:"api"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout struct {
		Seconds int `mapstructure:"seconds"`
	} `mapstructure:"timeout"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	MaxConcurrent int     `mapstructure:"max_concurrent"`
	MaxBacklog    int     `mapstructure:"max_backlog"`
}

// TimeoutDuration は設定秒数を time.Duration として返す
func (c *OpenAIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout.Seconds) * time.Second
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数からの上書き (例: OPENAI_API_KEY, DATABASE_URL)
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("openai.api.key", "OPENAI_API_KEY")
	viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("openai.model", "OPENAI_MODEL")
	viper.BindEnv("openai.timeout.seconds", "OPENAI_TIMEOUT_SECONDS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using environment variables and defaults.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = ":8080"
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = "info"
	}
	if Cfg.JWT.ExpiryHours <= 0 {
		Cfg.JWT.ExpiryHours = 24
	}
	applyOpenAIDefaults(&Cfg.OpenAI)

	// 必須項目のチェック。LLMキーなしでは create が常に失敗するため起動時に弾く。
	if Cfg.OpenAI.API.Key == "" {
		return fmt.Errorf("openai.api.key is required")
	}
	if Cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if Cfg.JWT.SecretKey == "" {
		return fmt.Errorf("jwt.secret_key is required")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("OpenAI Model: %s (timeout %ds)", Cfg.OpenAI.Model, Cfg.OpenAI.Timeout.Seconds)

	return nil
}

func applyOpenAIDefaults(c *OpenAIConfig) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Timeout.Seconds <= 0 {
		c.Timeout.Seconds = 60
	}
	// temperature は 0 が有効値のため、未設定の場合のみ補う
	if !viper.IsSet("openai.temperature") {
		c.Temperature = 0.7
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2000
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.MaxBacklog <= 0 {
		c.MaxBacklog = 16
	}
}
