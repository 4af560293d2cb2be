package types

// Score category keys as they appear in the analysis JSON
const (
	CategoryImpact           = "impact"
	CategoryClarity          = "clarity"
	CategoryStructure        = "structure"
	CategorySkills           = "skills"
	CategoryATSCompatibility = "ats_compatibility"
)

// CategoryKeys lists the score categories in display order
var CategoryKeys = []string{
	CategoryImpact,
	CategoryClarity,
	CategoryStructure,
	CategorySkills,
	CategoryATSCompatibility,
}

// CategoryLabels maps score categories to their display labels
var CategoryLabels = map[string]string{
	CategoryImpact:           "Impact",
	CategoryClarity:          "Clarity",
	CategoryStructure:        "Structure",
	CategorySkills:           "Skills",
	CategoryATSCompatibility: "ATS Score",
}

// AnalysisResult represents the recruiter review returned by the AI
type AnalysisResult struct {
	ScoreOverall         int               `json:"score_overall"`
	Scores               CategoryScores    `json:"scores"`
	InterviewProbability string            `json:"interview_probability"`
	TopStrengths         []string          `json:"top_strengths"`
	CriticalWeaknesses   []string          `json:"critical_weaknesses"`
	RecruiterSummary     string            `json:"recruiter_summary"`
	RewrittenBullets     []RewrittenBullet `json:"rewritten_bullets"`
}

// CategoryScores holds the five per-category scores
type CategoryScores struct {
	Impact           int `json:"impact"`
	Clarity          int `json:"clarity"`
	Structure        int `json:"structure"`
	Skills           int `json:"skills"`
	ATSCompatibility int `json:"ats_compatibility"`
}

// Get returns the score for a category key
func (s CategoryScores) Get(key string) int {
	switch key {
	case CategoryImpact:
		return s.Impact
	case CategoryClarity:
		return s.Clarity
	case CategoryStructure:
		return s.Structure
	case CategorySkills:
		return s.Skills
	case CategoryATSCompatibility:
		return s.ATSCompatibility
	default:
		return 0
	}
}

// RewrittenBullet pairs a bullet from the resume with its improved version
type RewrittenBullet struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
}
