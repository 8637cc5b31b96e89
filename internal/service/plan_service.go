// internal/service/plan_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"study_wala_backend/internal/config"
	"study_wala_backend/internal/llm"
	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"
	"study_wala_backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService は学習プランのユースケースを提供します。
// CreatePlan はAI合成パイプライン (プロンプト生成 → LLM呼び出し → 解析 → カタログ照合 → 永続化) の起点。
type PlanService interface {
	CreatePlan(ctx context.Context, userID uuid.UUID, req *model.CreatePlanRequest) (*model.StudyPlanResponse, error)
	GetPlan(ctx context.Context, userID, planID uuid.UUID) (*model.StudyPlanResponse, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]*model.StudyPlanResponse, error)
	UpdateProgress(ctx context.Context, userID, planID uuid.UUID, req *model.UpdateProgressRequest) (*model.StudyPlanResponse, error)
	DeletePlan(ctx context.Context, userID, planID uuid.UUID) error
}

type planService struct {
	db          *gorm.DB
	planRepo    repository.PlanRepository
	subjectRepo repository.SubjectRepository
	topicRepo   repository.TopicRepository
	llmClient   llm.Client
	llmCfg      config.OpenAIConfig
}

func NewPlanService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	subjectRepo repository.SubjectRepository,
	topicRepo repository.TopicRepository,
	llmClient llm.Client,
	llmCfg config.OpenAIConfig,
) PlanService {
	return &planService{
		db:          db,
		planRepo:    planRepo,
		subjectRepo: subjectRepo,
		topicRepo:   topicRepo,
		llmClient:   llmClient,
		llmCfg:      llmCfg,
	}
}

// CreatePlan はリクエストからAIで学習プランを合成し、永続化して返します。
func (s *planService) CreatePlan(ctx context.Context, userID uuid.UUID, req *model.CreatePlanRequest) (*model.StudyPlanResponse, error) {
	logger := middleware.GetLogger(ctx)

	if err := validatePlanDates(req); err != nil {
		return nil, err
	}

	// 科目をユーザースコープで一括読み込み。件数不一致は未知または他ユーザー所有の科目を含む。
	subjects, err := s.subjectRepo.FindByIDs(ctx, s.db, userID, req.SubjectIDs)
	if err != nil {
		return nil, err
	}
	requested := uniqueIDs(req.SubjectIDs)
	if len(subjects) != len(requested) {
		return nil, model.NewAppError("UNKNOWN_SUBJECT", "指定された科目が見つかりません。", "subjectIds", model.ErrUnknownSubject)
	}
	// プロンプトの決定性のため、リクエストで指定された順に並べ直す
	subjects = orderSubjects(subjects, requested)

	messages := BuildPlanPrompt(req, subjects)
	completion, err := s.llmClient.Complete(ctx, messages, llm.Params{
		Model:       s.llmCfg.Model,
		Temperature: s.llmCfg.Temperature,
		MaxTokens:   s.llmCfg.MaxTokens,
		Timeout:     s.llmCfg.TimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}
	if completion.FinishReason != llm.FinishReasonStop {
		logger.Warn("LLM response truncated",
			slog.String("finish_reason", completion.FinishReason),
		)
		return nil, fmt.Errorf("llm finished with %q: %w", completion.FinishReason, model.ErrTruncated)
	}

	// プロンプト作成時と同じカタログスナップショットで検証する
	parsed, err := ParsePlanResponse(completion.Content, newSubjectIndex(subjects))
	if err != nil {
		return nil, err
	}

	topics, err := s.topicRepo.FindBySubjectIDs(ctx, s.db, userID, req.SubjectIDs)
	if err != nil {
		// 取り消されたコンテキストでの読み込み失敗もキャンセル扱いにする
		if cerr := ctx.Err(); cerr != nil {
			return nil, mapCancellation(cerr)
		}
		return nil, err
	}
	rec, err := reconcilePlan(parsed, userID, subjects, topics)
	if err != nil {
		return nil, err
	}

	// 永続化前の最終キャンセル確認。ここを越えたら書き込みは中断しない。
	if err := ctx.Err(); err != nil {
		return nil, mapCancellation(err)
	}

	now := time.Now()
	description := parsed.Description
	if description == "" {
		description = req.Description
	}
	plan := &model.StudyPlan{
		PlanID:         uuid.New(),
		UserID:         userID,
		Title:          parsed.Title,
		Description:    description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		SubjectRefs:    rec.SubjectRefs,
		TopicRefs:      rec.TopicRefs,
		TotalHours:     req.HoursPerDay * (req.StartDate.DaysUntil(req.EndDate) + 1),
		CompletedHours: 0,
		Status:         model.PlanStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	persistCtx := context.WithoutCancel(ctx)
	err = s.db.WithContext(persistCtx).Transaction(func(tx *gorm.DB) error {
		for _, topic := range rec.NewTopics {
			if err := s.topicRepo.Create(persistCtx, tx, topic); err != nil {
				return err
			}
		}
		return s.planRepo.Create(persistCtx, tx, plan)
	})
	if err != nil {
		logger.Error("Failed to persist study plan", slog.Any("error", err))
		return nil, fmt.Errorf("persisting study plan: %v: %w", err, model.ErrStorage)
	}

	// LLMの申告時間と計算結果の乖離は参考情報。プランは計算値で確定する。
	if parsed.TotalHours > 0 && parsed.TotalHours != plan.TotalHours {
		logger.Warn("LLM reported total hours differs from computed value",
			slog.Int("reported", parsed.TotalHours),
			slog.Int("computed", plan.TotalHours),
			slog.String("plan_id", plan.PlanID.String()),
		)
	}
	if rec.EstimatedTotal > plan.TotalHours {
		logger.Warn("Estimated topic hours exceed plan total",
			slog.Int("estimated", rec.EstimatedTotal),
			slog.Int("total", plan.TotalHours),
			slog.String("plan_id", plan.PlanID.String()),
		)
	}

	return toPlanResponse(plan, orderSubjects(subjects, rec.SubjectRefs), rec.ResolvedTopics), nil
}

// GetPlan はプランを取得します。他ユーザーのプランは存在有無を含めて NotFound。
func (s *planService) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*model.StudyPlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	return s.resolvePlan(ctx, userID, plan)
}

// ListPlans は自分のプランを作成日時の降順で返します
func (s *planService) ListPlans(ctx context.Context, userID uuid.UUID) ([]*model.StudyPlanResponse, error) {
	plans, err := s.planRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.StudyPlanResponse, 0, len(plans))
	for _, plan := range plans {
		resp, err := s.resolvePlan(ctx, userID, plan)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// UpdateProgress は消化時間を更新します。総時間に達した時点で COMPLETED、下回れば ACTIVE に戻る。
func (s *planService) UpdateProgress(ctx context.Context, userID, planID uuid.UUID, req *model.UpdateProgressRequest) (*model.StudyPlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == model.PlanStatusArchived {
		return nil, model.NewAppError("PLAN_ARCHIVED", "アーカイブ済みのプランは更新できません。", "", model.ErrConflict)
	}

	hours := *req.CompletedHours
	if hours > plan.TotalHours {
		return nil, model.NewAppError("INVALID_PROGRESS", "消化時間が総学習時間を超えています。", "completedHours", model.ErrInvalidInput)
	}

	status := model.PlanStatusActive
	if hours == plan.TotalHours {
		status = model.PlanStatusCompleted
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planRepo.Update(ctx, tx, userID, planID, map[string]interface{}{
			"completed_hours": hours,
			"status":          status,
		})
	})
	if err != nil {
		return nil, err
	}

	plan.CompletedHours = hours
	plan.Status = status
	return s.resolvePlan(ctx, userID, plan)
}

// DeletePlan はプランを物理削除します。削除後の参照は NotFound。
func (s *planService) DeletePlan(ctx context.Context, userID, planID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planRepo.Delete(ctx, tx, userID, planID)
	})
}

// resolvePlan は参照IDをカタログの実体に展開してレスポンスを組み立てます
func (s *planService) resolvePlan(ctx context.Context, userID uuid.UUID, plan *model.StudyPlan) (*model.StudyPlanResponse, error) {
	subjects, err := s.subjectRepo.FindByIDs(ctx, s.db, userID, plan.SubjectRefs)
	if err != nil {
		return nil, err
	}
	topics, err := s.topicRepo.FindByIDs(ctx, s.db, userID, plan.TopicRefs)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan, subjects, topics), nil
}

func toPlanResponse(plan *model.StudyPlan, subjects []*model.Subject, topics []*model.Topic) *model.StudyPlanResponse {
	if subjects == nil {
		subjects = []*model.Subject{}
	}
	if topics == nil {
		topics = []*model.Topic{}
	}
	return &model.StudyPlanResponse{
		ID:             plan.PlanID,
		Title:          plan.Title,
		Description:    plan.Description,
		StartDate:      plan.StartDate,
		EndDate:        plan.EndDate,
		Subjects:       subjects,
		Topics:         topics,
		TotalHours:     plan.TotalHours,
		CompletedHours: plan.CompletedHours,
		Status:         plan.Status,
		CreatedAt:      plan.CreatedAt,
	}
}

func validatePlanDates(req *model.CreatePlanRequest) error {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return model.NewAppError("INVALID_DATE", "開始日と終了日は必須です。", "startDate", model.ErrInvalidInput)
	}
	if req.EndDate.Before(req.StartDate.Time) {
		return model.NewAppError("INVALID_DATE_RANGE", "終了日は開始日以降である必要があります。", "endDate", model.ErrInvalidInput)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func orderSubjects(subjects []*model.Subject, order []uuid.UUID) []*model.Subject {
	byID := make(map[uuid.UUID]*model.Subject, len(subjects))
	for _, s := range subjects {
		byID[s.SubjectID] = s
	}
	out := make([]*model.Subject, 0, len(order))
	for _, id := range order {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func mapCancellation(err error) error {
	if err == context.DeadlineExceeded {
		return fmt.Errorf("request deadline exceeded before persist: %w", model.ErrUpstreamTimeout)
	}
	return fmt.Errorf("request cancelled before persist: %w", model.ErrCancelled)
}
