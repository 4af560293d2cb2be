package ai

import (
	"fmt"

	"resumegrade/internal/errors"
	"resumegrade/internal/types"

	"github.com/tidwall/gjson"
)

// MsgUnparseableResponse is reported when the message content is not JSON
const MsgUnparseableResponse = "Invalid AI response: could not parse JSON content"

// requiredFields are checked in this order; the first missing one is reported
var requiredFields = []string{
	"score_overall",
	"scores",
	"interview_probability",
	"top_strengths",
	"critical_weaknesses",
	"recruiter_summary",
	"rewritten_bullets",
}

// ParseAnalysis decodes the model's message content into an AnalysisResult.
// Validation only checks that the required keys are present. Values are not
// type- or range-checked, and numbers sent as strings are coerced.
func ParseAnalysis(content string) (*types.AnalysisResult, error) {
	if !gjson.Valid(content) {
		return nil, errors.NewResponseParseError(MsgUnparseableResponse, nil).
			WithContext("content_length", len(content))
	}

	doc := gjson.Parse(content)
	if err := validateShape(doc); err != nil {
		return nil, err
	}

	return decodeAnalysis(doc), nil
}

func validateShape(doc gjson.Result) error {
	for _, field := range requiredFields {
		if !doc.IsObject() || !doc.Get(field).Exists() {
			return errors.NewResponseShapeError(fmt.Sprintf("Invalid AI response: missing field '%s'", field))
		}
	}

	scores := doc.Get("scores")
	for _, key := range types.CategoryKeys {
		if !scores.IsObject() || !scores.Get(key).Exists() {
			return errors.NewResponseShapeError(fmt.Sprintf("Invalid AI response: missing score '%s'", key))
		}
	}

	return nil
}

func decodeAnalysis(doc gjson.Result) *types.AnalysisResult {
	scores := doc.Get("scores")

	result := &types.AnalysisResult{
		ScoreOverall: int(doc.Get("score_overall").Int()),
		Scores: types.CategoryScores{
			Impact:           int(scores.Get(types.CategoryImpact).Int()),
			Clarity:          int(scores.Get(types.CategoryClarity).Int()),
			Structure:        int(scores.Get(types.CategoryStructure).Int()),
			Skills:           int(scores.Get(types.CategorySkills).Int()),
			ATSCompatibility: int(scores.Get(types.CategoryATSCompatibility).Int()),
		},
		InterviewProbability: doc.Get("interview_probability").String(),
		TopStrengths:         stringList(doc.Get("top_strengths")),
		CriticalWeaknesses:   stringList(doc.Get("critical_weaknesses")),
		RecruiterSummary:     doc.Get("recruiter_summary").String(),
		RewrittenBullets:     []types.RewrittenBullet{},
	}

	for _, item := range doc.Get("rewritten_bullets").Array() {
		result.RewrittenBullets = append(result.RewrittenBullets, types.RewrittenBullet{
			Original: item.Get("original").String(),
			Improved: item.Get("improved").String(),
		})
	}

	return result
}

func stringList(value gjson.Result) []string {
	items := value.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}
