// internal/service/parser.go
package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"study_wala_backend/internal/model"
)

// ParsedPlan はLLM応答から抽出した型付きプラン (パイプライン内部でのみ使用)
type ParsedPlan struct {
	Title       string
	Description string
	Subjects    []ParsedSubject
	Topics      []ParsedTopic
	TotalHours  int
}

// ParsedSubject はLLMが参照した科目。IDまたは名前のどちらかを持つ。
type ParsedSubject struct {
	ID   string
	Name string
}

// ParsedTopic はLLMが生成したトピック。親科目をIDまたは名前で参照する。
type ParsedTopic struct {
	Name           string
	SubjectID      string
	SubjectName    string
	EstimatedHours int
}

// subjectIndex はリクエストで指定された科目の検索表。
// プロンプト作成時に読み込んだカタログスナップショットから構築し、
// LLMがリクエスト外の科目を持ち込んでいないかの判定に使う。
type subjectIndex struct {
	byID   map[string]*model.Subject
	byName map[string]*model.Subject // キーは小文字化した名前
}

func newSubjectIndex(subjects []*model.Subject) *subjectIndex {
	idx := &subjectIndex{
		byID:   make(map[string]*model.Subject, len(subjects)),
		byName: make(map[string]*model.Subject, len(subjects)),
	}
	for _, s := range subjects {
		idx.byID[s.SubjectID.String()] = s
		idx.byName[strings.ToLower(s.Name)] = s
	}
	return idx
}

func (idx *subjectIndex) resolve(id, name string) *model.Subject {
	if id != "" {
		if s, ok := idx.byID[id]; ok {
			return s
		}
		return nil
	}
	if name != "" {
		if s, ok := idx.byName[strings.ToLower(name)]; ok {
			return s
		}
	}
	return nil
}

// flexInt は数値または数値文字列を受け付ける整数。
// 曖昧な値 (小数・数値でない文字列) は拒否する。
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("ambiguous integer value %q", s)
	}
	*f = flexInt(n)
	return nil
}

// 寛容デコード用の中間表現。未知フィールドは無視する。
type rawPlan struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Subjects    []rawSubject `json:"subjects"`
	Topics      []rawTopic   `json:"topics"`
	TotalHours  flexInt      `json:"totalHours"`
}

type rawSubject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawTopic struct {
	Name           string  `json:"name"`
	SubjectID      string  `json:"subjectId"`
	SubjectName    string  `json:"subjectName"`
	EstimatedHours flexInt `json:"estimatedHours"`
}

// ParsePlanResponse はLLMの自由形式応答を検証済みのParsedPlanへ変換する。
// 周囲の解説文やコードフェンスには寛容だが、構造の曖昧さには不寛容。
func ParsePlanResponse(raw string, idx *subjectIndex) (*ParsedPlan, error) {
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var decoded rawPlan
	if err := json.Unmarshal([]byte(jsonText), &decoded); err != nil {
		return nil, model.NewParseError(fmt.Sprintf("invalid json: %v", err), jsonText)
	}

	plan := &ParsedPlan{
		Title:       strings.TrimSpace(decoded.Title),
		Description: strings.TrimSpace(decoded.Description),
		TotalHours:  int(decoded.TotalHours),
	}
	if plan.Title == "" {
		return nil, model.NewParseError("missing required field: title", jsonText)
	}
	if decoded.Subjects == nil {
		return nil, model.NewParseError("missing required field: subjects", jsonText)
	}
	if len(decoded.Subjects) == 0 {
		return nil, model.NewParseError("subjects must not be empty", jsonText)
	}
	if plan.TotalHours < 0 {
		return nil, model.NewParseError("totalHours must be >= 0", jsonText)
	}

	for _, s := range decoded.Subjects {
		subject := ParsedSubject{
			ID:   strings.TrimSpace(s.ID),
			Name: strings.TrimSpace(s.Name),
		}
		if subject.ID == "" && subject.Name == "" {
			return nil, model.NewParseError("subject entry has neither id nor name", jsonText)
		}
		// LLMはリクエストに含まれない科目を持ち込んではならない
		if idx.resolve(subject.ID, subject.Name) == nil {
			ref := subject.ID
			if ref == "" {
				ref = subject.Name
			}
			return nil, model.NewParseError(fmt.Sprintf("subject %q is not part of the request", ref), jsonText)
		}
		plan.Subjects = append(plan.Subjects, subject)
	}

	for _, t := range decoded.Topics {
		topic := ParsedTopic{
			Name:           strings.TrimSpace(t.Name),
			SubjectID:      strings.TrimSpace(t.SubjectID),
			SubjectName:    strings.TrimSpace(t.SubjectName),
			EstimatedHours: int(t.EstimatedHours),
		}
		if topic.Name == "" {
			return nil, model.NewParseError("topic entry is missing a name", jsonText)
		}
		if topic.SubjectID == "" && topic.SubjectName == "" {
			return nil, model.NewParseError(fmt.Sprintf("topic %q has neither subjectId nor subjectName", topic.Name), jsonText)
		}
		if topic.EstimatedHours < 0 {
			return nil, model.NewParseError(fmt.Sprintf("topic %q has negative estimatedHours", topic.Name), jsonText)
		}
		if idx.resolve(topic.SubjectID, topic.SubjectName) == nil {
			return nil, model.NewParseError(fmt.Sprintf("topic %q references a subject outside the request", topic.Name), jsonText)
		}
		plan.Topics = append(plan.Topics, topic)
	}

	return plan, nil
}

// extractJSONObject は応答中の最初の対応が取れたJSONオブジェクトを切り出す。
// 文字列リテラル内の括弧・エスケープを考慮して走査する。
func extractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", model.NewParseError("no json object found in response", raw)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// 文字列内の括弧は無視
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}

	return "", model.NewParseError("unbalanced json object in response", raw[start:])
}
