// internal/service/prompt.go
package service

import (
	"fmt"
	"strings"

	"study_wala_backend/internal/llm"
	"study_wala_backend/internal/model"
)

// planSystemPrompt は応答契約を固定するシステムメッセージ。
// トップレベルキーをここで厳密に指定することでパーサ側の前提を支える。
const planSystemPrompt = "You are an AI study planner. Generate a personalized study plan based on the user's input. " +
	"Respond with a single JSON object whose top-level keys are exactly {title, description, subjects, topics, totalHours}. " +
	"Each subject must reference one of the user's subjects by id or name; never introduce new subjects. " +
	"Each topic must have a name, a subjectId or subjectName, and an integer estimatedHours."

// BuildPlanPrompt はプラン生成リクエストをプロバイダ向けメッセージ列に変換する純粋関数。
// 同一の (req, subjects) に対して常にバイト単位で同一の内容を生成する (決定性)。
// subjects は req.SubjectIDs の順に並んでいること。
func BuildPlanPrompt(req *model.CreatePlanRequest, subjects []*model.Subject) []llm.Message {
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}

	userContent := fmt.Sprintf(
		"Create a study plan with title: %s, description: %s, subjects: %s, start date: %s, end date: %s, hours per day: %d",
		req.Title,
		req.Description,
		strings.Join(names, ", "),
		req.StartDate.String(),
		req.EndDate.String(),
		req.HoursPerDay,
	)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: planSystemPrompt},
		{Role: llm.RoleUser, Content: userContent},
	}
}
