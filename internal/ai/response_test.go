package ai

import (
	"testing"

	"resumegrade/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnalysis = `{
  "score_overall": 72,
  "scores": {"impact": 65, "clarity": 80, "structure": 75, "skills": 70, "ats_compatibility": 68},
  "interview_probability": "Medium",
  "top_strengths": ["Clear progression", "Relevant stack"],
  "critical_weaknesses": ["No metrics"],
  "recruiter_summary": "Solid but generic.",
  "rewritten_bullets": [{"original": "Worked on APIs", "improved": "Built 12 REST APIs serving 2M requests/day"}]
}`

func TestParseAnalysisValid(t *testing.T) {
	result, err := ParseAnalysis(validAnalysis)
	require.NoError(t, err)

	assert.Equal(t, 72, result.ScoreOverall)
	assert.Equal(t, 65, result.Scores.Impact)
	assert.Equal(t, 68, result.Scores.ATSCompatibility)
	assert.Equal(t, "Medium", result.InterviewProbability)
	assert.Equal(t, []string{"Clear progression", "Relevant stack"}, result.TopStrengths)
	assert.Equal(t, []string{"No metrics"}, result.CriticalWeaknesses)
	assert.Equal(t, "Solid but generic.", result.RecruiterSummary)
	require.Len(t, result.RewrittenBullets, 1)
	assert.Equal(t, "Worked on APIs", result.RewrittenBullets[0].Original)
}

func TestParseAnalysisMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{
			name:    "empty object",
			content: `{}`,
			message: "Invalid AI response: missing field 'score_overall'",
		},
		{
			name:    "top level array",
			content: `[1,2,3]`,
			message: "Invalid AI response: missing field 'score_overall'",
		},
		{
			name:    "first missing field wins",
			content: `{"score_overall": 50, "scores": {}, "top_strengths": []}`,
			message: "Invalid AI response: missing field 'interview_probability'",
		},
		{
			name: "missing rewritten bullets",
			content: `{"score_overall": 50, "scores": {}, "interview_probability": "Low",
				"top_strengths": [], "critical_weaknesses": [], "recruiter_summary": ""}`,
			message: "Invalid AI response: missing field 'rewritten_bullets'",
		},
		{
			name: "missing category score",
			content: `{"score_overall": 50, "scores": {"impact": 1, "clarity": 2, "structure": 3, "skills": 4},
				"interview_probability": "Low", "top_strengths": [], "critical_weaknesses": [],
				"recruiter_summary": "", "rewritten_bullets": []}`,
			message: "Invalid AI response: missing score 'ats_compatibility'",
		},
		{
			name: "scores not an object",
			content: `{"score_overall": 50, "scores": 7, "interview_probability": "Low",
				"top_strengths": [], "critical_weaknesses": [], "recruiter_summary": "", "rewritten_bullets": []}`,
			message: "Invalid AI response: missing score 'impact'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.content)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeResponseShape))
			assert.Equal(t, tt.message, errors.UserMessage(err))
		})
	}
}

func TestParseAnalysisPresenceOnly(t *testing.T) {
	content := `{"score_overall": "88", "scores": {"impact": null, "clarity": 1, "structure": 2, "skills": 3, "ats_compatibility": 4},
		"interview_probability": null, "top_strengths": "not a list", "critical_weaknesses": [],
		"recruiter_summary": "", "rewritten_bullets": []}`

	result, err := ParseAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, 88, result.ScoreOverall)
	assert.Equal(t, 0, result.Scores.Impact)
	assert.Equal(t, "", result.InterviewProbability)
	assert.Empty(t, result.RewrittenBullets)
}

func TestParseAnalysisInvalidJSON(t *testing.T) {
	_, err := ParseAnalysis("Here is my review: great resume!")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeResponseParse))
	assert.Equal(t, MsgUnparseableResponse, errors.UserMessage(err))
}
