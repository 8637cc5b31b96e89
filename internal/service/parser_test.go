// internal/service/parser_test.go
package service

import (
	"errors"
	"strings"
	"testing"

	"study_wala_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubjects() []*model.Subject {
	userID := uuid.New()
	return []*model.Subject{
		{SubjectID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), UserID: userID, Name: "Mathematics"},
		{SubjectID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), UserID: userID, Name: "Physics"},
	}
}

func Test_ParsePlanResponse_PlainJSON(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	raw := `{
		"title": "Finals Prep",
		"description": "Two week sprint",
		"subjects": [{"id": "11111111-1111-1111-1111-111111111111"}, {"name": "physics"}],
		"topics": [
			{"name": "Integrals", "subjectId": "11111111-1111-1111-1111-111111111111", "estimatedHours": 6},
			{"name": "Kinematics", "subjectName": "Physics", "estimatedHours": 4}
		],
		"totalHours": 21
	}`

	plan, err := ParsePlanResponse(raw, idx)

	require.NoError(t, err)
	assert.Equal(t, "Finals Prep", plan.Title)
	assert.Equal(t, "Two week sprint", plan.Description)
	assert.Len(t, plan.Subjects, 2)
	assert.Len(t, plan.Topics, 2)
	assert.Equal(t, 21, plan.TotalHours)
	assert.Equal(t, 6, plan.Topics[0].EstimatedHours)
}

func Test_ParsePlanResponse_ToleratesCodeFenceAndPreamble(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	raw := "Sure! Here is your study plan:\n```json\n" +
		`{"title": "Plan", "subjects": [{"name": "Mathematics"}], "topics": [], "totalHours": 10}` +
		"\n```\nLet me know if you need changes."

	plan, err := ParsePlanResponse(raw, idx)

	require.NoError(t, err)
	assert.Equal(t, "Plan", plan.Title)
	assert.Equal(t, 10, plan.TotalHours)
}

func Test_ParsePlanResponse_NumericStringCoercion(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	raw := `{"title": "Plan", "subjects": [{"name": "Mathematics"}],
		"topics": [{"name": "Algebra", "subjectName": "Mathematics", "estimatedHours": "12"}],
		"totalHours": "30"}`

	plan, err := ParsePlanResponse(raw, idx)

	require.NoError(t, err)
	assert.Equal(t, 30, plan.TotalHours)
	assert.Equal(t, 12, plan.Topics[0].EstimatedHours)
}

func Test_ParsePlanResponse_AmbiguousNumberRejected(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	raw := `{"title": "Plan", "subjects": [{"name": "Mathematics"}], "topics": [], "totalHours": "about thirty"}`

	_, err := ParsePlanResponse(raw, idx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)
}

func Test_ParsePlanResponse_MalformedJSON(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	// キーが引用されていない擬似JSON
	raw := `Here is your plan: {title: Finals, subjects: [s1]}`

	_, err := ParsePlanResponse(raw, idx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)

	var parseErr *model.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.NotEmpty(t, parseErr.Reason)
	assert.LessOrEqual(t, len([]rune(parseErr.Excerpt)), 200)
}

func Test_ParsePlanResponse_NoObjectFound(t *testing.T) {
	idx := newSubjectIndex(testSubjects())

	_, err := ParsePlanResponse("I could not generate a plan, sorry.", idx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)
}

func Test_ParsePlanResponse_UnbalancedObject(t *testing.T) {
	idx := newSubjectIndex(testSubjects())

	_, err := ParsePlanResponse(`{"title": "Plan", "subjects": [`, idx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)
}

func Test_ParsePlanResponse_BracesInsideStringsIgnored(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	raw := `{"title": "Plan {with braces}", "description": "escaped \" quote", "subjects": [{"name": "Mathematics"}], "topics": [], "totalHours": 5}`

	plan, err := ParsePlanResponse(raw, idx)

	require.NoError(t, err)
	assert.Equal(t, `Plan {with braces}`, plan.Title)
}

func Test_ParsePlanResponse_RequiredFields(t *testing.T) {
	idx := newSubjectIndex(testSubjects())
	tests := []struct {
		name string
		raw  string
	}{
		{name: "titleなし", raw: `{"subjects": [{"name": "Mathematics"}], "totalHours": 5}`},
		{name: "subjectsなし", raw: `{"title": "Plan", "totalHours": 5}`},
		{name: "subjectsが空", raw: `{"title": "Plan", "subjects": [], "totalHours": 5}`},
		{name: "totalHoursが負", raw: `{"title": "Plan", "subjects": [{"name": "Mathematics"}], "totalHours": -1}`},
		{name: "トピック名なし", raw: `{"title": "Plan", "subjects": [{"name": "Mathematics"}], "topics": [{"subjectName": "Mathematics", "estimatedHours": 2}], "totalHours": 5}`},
		{name: "トピックの科目参照なし", raw: `{"title": "Plan", "subjects": [{"name": "Mathematics"}], "topics": [{"name": "Algebra", "estimatedHours": 2}], "totalHours": 5}`},
		{name: "トピックのestimatedHoursが負", raw: `{"title": "Plan", "subjects": [{"name": "Mathematics"}], "topics": [{"name": "Algebra", "subjectName": "Mathematics", "estimatedHours": -2}], "totalHours": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanResponse(tt.raw, idx)
			assert.ErrorIs(t, err, model.ErrParse)
		})
	}
}

func Test_ParsePlanResponse_RejectsSubjectsOutsideRequest(t *testing.T) {
	idx := newSubjectIndex(testSubjects())

	// リクエストに含まれない科目をLLMが発明した場合
	raw := `{"title": "Plan", "subjects": [{"name": "Chemistry"}], "topics": [], "totalHours": 5}`
	_, err := ParsePlanResponse(raw, idx)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)

	// トピックがリクエスト外の科目を参照した場合
	raw = `{"title": "Plan", "subjects": [{"name": "Mathematics"}],
		"topics": [{"name": "Organic", "subjectName": "Chemistry", "estimatedHours": 3}], "totalHours": 5}`
	_, err = ParsePlanResponse(raw, idx)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)
}

func Test_ParsePlanResponse_IDTakesPrecedenceOverName(t *testing.T) {
	idx := newSubjectIndex(testSubjects())

	// idが不正ならnameが一致していても拒否する
	raw := `{"title": "Plan", "subjects": [{"id": "99999999-9999-9999-9999-999999999999", "name": "Mathematics"}], "topics": [], "totalHours": 5}`
	_, err := ParsePlanResponse(raw, idx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParse)
}

func Test_NewParseError_RedactsCredentialLikeRuns(t *testing.T) {
	secret := "sk" + strings.Repeat("A1b2C3d4", 5) // base64風の長い列
	err := model.NewParseError("invalid json", "prefix "+secret+" suffix")

	assert.NotContains(t, err.Excerpt, secret)
	assert.Contains(t, err.Excerpt, "[REDACTED]")
}

func Test_NewParseError_TruncatesExcerpt(t *testing.T) {
	err := model.NewParseError("invalid json", strings.Repeat("やあ ", 300))

	assert.LessOrEqual(t, len([]rune(err.Excerpt)), 200)
}
