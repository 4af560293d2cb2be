package presentation

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"resumegrade/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// CredentialMask is shown in the key field when a key is already stored
const CredentialMask = "••••••••••••••••"

// ModalView is the state of the credential modal overlay
type ModalView struct {
	Open    bool   `json:"open"`
	Prefill string `json:"prefill"`
}

// PageData is everything the page shell needs
type PageData struct {
	Title         string
	Snapshot      Snapshot
	Modal         ModalView
	CredentialSet bool
	KeyLabel      string
	KeyPrefix     string
	MaxFileSizeMB float64
	ResultsHTML   template.HTML
}

type categoryView struct {
	Key   string
	Label string
	Score int
}

type resultsData struct {
	Result           *types.AnalysisResult
	Categories       []categoryView
	Radius           int
	Circumference    float64
	Offset           float64
	OverallDuration  int64
	CategoryDuration int64
}

// Renderer executes the embedded HTML templates. Model text is always
// escaped by html/template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("resumegrade").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderResults renders the results region for a review
func (r *Renderer) RenderResults(result *types.AnalysisResult) (template.HTML, error) {
	if result == nil {
		return "", nil
	}

	data := resultsData{
		Result:           result,
		Radius:           CircleRadius,
		Circumference:    CircleCircumference(),
		Offset:           CircleOffset(result.ScoreOverall),
		OverallDuration:  OverallScoreDuration.Milliseconds(),
		CategoryDuration: CategoryScoreDuration.Milliseconds(),
	}
	for _, key := range types.CategoryKeys {
		data.Categories = append(data.Categories, categoryView{
			Key:   key,
			Label: types.CategoryLabels[key],
			Score: result.Scores.Get(key),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "results", data); err != nil {
		return "", fmt.Errorf("failed to render results: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderBanners renders the live notifications
func (r *Renderer) RenderBanners(banners []Banner) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "banners", banners); err != nil {
		return "", fmt.Errorf("failed to render banners: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderPage writes the full page for the current snapshot
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Resume Grader"
	}
	if data.ResultsHTML == "" && data.Snapshot.View.Kind == ViewResults {
		html, err := r.RenderResults(data.Snapshot.View.Result)
		if err != nil {
			return err
		}
		data.ResultsHTML = html
	}

	return r.tmpl.ExecuteTemplate(w, "page", struct {
		PageData
		Mask string
	}{data, CredentialMask})
}

// StaticFiles returns the embedded script and stylesheet
func StaticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return sub
}
