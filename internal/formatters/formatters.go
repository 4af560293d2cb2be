package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumegrade/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})

	return registry
}

// GlobalRegistry is the shared registry used by commands
var GlobalRegistry = NewFormatterRegistry()

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	default:
		return "any"
	}
}

func asAnalysis(data any) (*types.AnalysisResult, error) {
	switch result := data.(type) {
	case types.AnalysisResult:
		return &result, nil
	case *types.AnalysisResult:
		if result == nil {
			return nil, fmt.Errorf("expected AnalysisResult, got nil")
		}
		return result, nil
	default:
		return nil, fmt.Errorf("expected AnalysisResult, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter renders a review as plain text
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== RESUME REVIEW ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.ScoreOverall))
	output.WriteString(fmt.Sprintf("Interview Probability: %s\n\n", result.InterviewProbability))

	output.WriteString("=== CATEGORY BREAKDOWN ===\n")
	for _, key := range types.CategoryKeys {
		output.WriteString(fmt.Sprintf("%-10s %3d\n", types.CategoryLabels[key]+":", result.Scores.Get(key)))
	}
	output.WriteString("\n")

	output.WriteString("=== RECRUITER'S TAKE ===\n")
	output.WriteString(result.RecruiterSummary)
	output.WriteString("\n\n")

	output.WriteString("=== KEY INSIGHTS ===\n")
	output.WriteString("Top Strengths:\n")
	for _, strength := range result.TopStrengths {
		output.WriteString(fmt.Sprintf("  + %s\n", strength))
	}
	output.WriteString("\nCritical Weaknesses:\n")
	for _, weakness := range result.CriticalWeaknesses {
		output.WriteString(fmt.Sprintf("  - %s\n", weakness))
	}

	if len(result.RewrittenBullets) > 0 {
		output.WriteString("\n=== BULLET POINT IMPROVEMENTS ===\n")
		for i, bullet := range result.RewrittenBullets {
			output.WriteString(fmt.Sprintf("%d. Before: %s\n", i+1, bullet.Original))
			output.WriteString(fmt.Sprintf("   After:  %s\n", bullet.Improved))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter renders a review as markdown
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Review\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", result.ScoreOverall))
	output.WriteString(fmt.Sprintf("**Interview Probability:** %s\n\n", result.InterviewProbability))

	output.WriteString("## Category Breakdown\n\n")
	output.WriteString("| Category | Score |\n")
	output.WriteString("|----------|-------|\n")
	for _, key := range types.CategoryKeys {
		output.WriteString(fmt.Sprintf("| %s | %d |\n", types.CategoryLabels[key], result.Scores.Get(key)))
	}
	output.WriteString("\n")

	output.WriteString("## Recruiter's Take\n\n")
	output.WriteString(fmt.Sprintf("> %s\n\n", result.RecruiterSummary))

	output.WriteString("## Key Insights\n\n")
	output.WriteString("### Top Strengths\n")
	for _, strength := range result.TopStrengths {
		output.WriteString(fmt.Sprintf("- %s\n", strength))
	}
	output.WriteString("\n### Critical Weaknesses\n")
	for _, weakness := range result.CriticalWeaknesses {
		output.WriteString(fmt.Sprintf("- %s\n", weakness))
	}

	if len(result.RewrittenBullets) > 0 {
		output.WriteString("\n## Bullet Point Improvements\n\n")
		for _, bullet := range result.RewrittenBullets {
			output.WriteString(fmt.Sprintf("- **Before:** %s\n", bullet.Original))
			output.WriteString(fmt.Sprintf("  **After:** %s\n", bullet.Improved))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}
