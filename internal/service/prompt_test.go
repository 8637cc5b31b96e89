// internal/service/prompt_test.go
package service

import (
	"testing"

	"study_wala_backend/internal/llm"
	"study_wala_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptRequest() (*model.CreatePlanRequest, []*model.Subject) {
	subjects := []*model.Subject{
		{SubjectID: uuid.New(), Name: "Mathematics"},
		{SubjectID: uuid.New(), Name: "Physics"},
	}
	req := &model.CreatePlanRequest{
		Title:       "Finals Prep",
		Description: "Two week sprint",
		SubjectIDs:  []uuid.UUID{subjects[0].SubjectID, subjects[1].SubjectID},
		StartDate:   model.NewDate(2026, 6, 1),
		EndDate:     model.NewDate(2026, 6, 7),
		HoursPerDay: 3,
	}
	return req, subjects
}

func Test_BuildPlanPrompt_ContainsAllRequestFields(t *testing.T) {
	req, subjects := promptRequest()

	messages := BuildPlanPrompt(req, subjects)

	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.RoleUser, messages[1].Role)

	user := messages[1].Content
	assert.Contains(t, user, "Finals Prep")
	assert.Contains(t, user, "Two week sprint")
	assert.Contains(t, user, "Mathematics, Physics")
	assert.Contains(t, user, "2026-06-01")
	assert.Contains(t, user, "2026-06-07")
	assert.Contains(t, user, "hours per day: 3")
}

func Test_BuildPlanPrompt_Deterministic(t *testing.T) {
	req, subjects := promptRequest()

	first := BuildPlanPrompt(req, subjects)
	second := BuildPlanPrompt(req, subjects)

	assert.Equal(t, first, second)
}

func Test_BuildPlanPrompt_SubjectOrderFollowsInput(t *testing.T) {
	req, subjects := promptRequest()

	reversed := []*model.Subject{subjects[1], subjects[0]}
	forward := BuildPlanPrompt(req, subjects)
	backward := BuildPlanPrompt(req, reversed)

	assert.Contains(t, forward[1].Content, "Mathematics, Physics")
	assert.Contains(t, backward[1].Content, "Physics, Mathematics")
}
