package presentation

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"resumegrade/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestController() (*Controller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewController(clock.Now), clock
}

func visibleRegions(c *Controller) []ViewKind {
	var visible []ViewKind
	for _, r := range c.Regions() {
		if r.Visible {
			visible = append(visible, r.Kind)
		}
	}
	return visible
}

func TestControllerTransitionsShowExactlyOneRegion(t *testing.T) {
	c, _ := newTestController()
	assert.Equal(t, []ViewKind{ViewUpload}, visibleRegions(c))

	c.ShowLoading("Extracting text from your resume...")
	assert.Equal(t, []ViewKind{ViewLoading}, visibleRegions(c))
	assert.Equal(t, "Extracting text from your resume...", c.View().Message)

	c.ShowLoading("")
	assert.Equal(t, DefaultLoadingMessage, c.View().Message)

	c.ShowResults(&types.AnalysisResult{ScoreOverall: 72})
	assert.Equal(t, []ViewKind{ViewResults}, visibleRegions(c))

	c.ShowError("boom")
	assert.Equal(t, []ViewKind{ViewUpload}, visibleRegions(c))
}

func TestOnChangeSeesEveryTransition(t *testing.T) {
	c, _ := newTestController()
	var seen []ViewKind
	c.OnChange(func(v ViewState) {
		seen = append(seen, v.Kind)
		_ = c.Snapshot() // listeners may read the controller
	})

	c.ShowLoading("")
	c.ShowResults(&types.AnalysisResult{})
	c.ShowBannerError("banner only")
	c.ShowError("boom")
	c.ShowUpload()

	assert.Equal(t, []ViewKind{ViewLoading, ViewResults, ViewUpload, ViewUpload}, seen)
}

func TestBannersExpire(t *testing.T) {
	c, clock := newTestController()

	c.ShowError("File too large. Maximum size is 5MB.")
	c.ShowSuccess("API key saved successfully!")

	snap := c.Snapshot()
	require.Len(t, snap.Banners, 2)
	assert.Equal(t, BannerError, snap.Banners[0].Kind)
	assert.Equal(t, BannerSuccess, snap.Banners[1].Kind)

	clock.Advance(2999 * time.Millisecond)
	assert.Len(t, c.Snapshot().Banners, 2)

	clock.Advance(time.Millisecond)
	snap = c.Snapshot()
	require.Len(t, snap.Banners, 1)
	assert.Equal(t, BannerError, snap.Banners[0].Kind)

	clock.Advance(2 * time.Second)
	assert.Empty(t, c.Snapshot().Banners)
}

func TestBannersDoNotBlockTransitions(t *testing.T) {
	c, _ := newTestController()

	c.ShowBannerError("Please enter a valid API key")
	assert.Equal(t, ViewUpload, c.View().Kind)

	c.ShowLoading("")
	assert.Equal(t, ViewLoading, c.View().Kind)
	assert.Len(t, c.Snapshot().Banners, 1)
}

func TestSnapshotAnimationElapsed(t *testing.T) {
	c, clock := newTestController()
	c.ShowResults(&types.AnalysisResult{ScoreOverall: 40})

	clock.Advance(500 * time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, 500*time.Millisecond, snap.AnimationElapsed())

	before := snap.Revision
	c.ShowResults(&types.AnalysisResult{ScoreOverall: 40})
	snap = c.Snapshot()
	assert.Greater(t, snap.Revision, before)
	assert.Zero(t, snap.AnimationElapsed())
}

func TestRendererEscapesModelText(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.RenderResults(&types.AnalysisResult{
		ScoreOverall:         72,
		Scores:               types.CategoryScores{Impact: 65, Clarity: 80, Structure: 75, Skills: 70, ATSCompatibility: 68},
		InterviewProbability: "Medium",
		TopStrengths:         []string{"<script>alert(1)</script>"},
		CriticalWeaknesses:   []string{"No metrics"},
		RecruiterSummary:     "Tom & Jerry",
	})
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Tom &amp; Jerry")
	assert.Contains(t, out, `data-target="72"`)
	assert.Contains(t, out, `data-duration="1500"`)
	assert.Contains(t, out, "ATS Score")
	assert.NotContains(t, out, "Bullet Point Improvements")
}

func TestRendererPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	c, _ := newTestController()
	c.ShowError("Unsupported file type. Please upload a PDF or DOCX file.")

	var buf bytes.Buffer
	err = r.RenderPage(&buf, PageData{
		Snapshot:      c.Snapshot(),
		Modal:         ModalView{Open: true, Prefill: CredentialMask},
		CredentialSet: true,
		KeyLabel:      "OpenAI",
		KeyPrefix:     "sk-",
		MaxFileSizeMB: 5,
	})
	require.NoError(t, err)

	page := buf.String()
	assert.Contains(t, page, "API Key Set")
	assert.Contains(t, page, "Unsupported file type. Please upload a PDF or DOCX file.")
	assert.Contains(t, page, `id="uploadSection" class="upload-section"`)
	assert.Contains(t, page, `id="loadingSection" class="loading-section hidden"`)
	assert.Contains(t, page, `class="modal"`)
	assert.Contains(t, page, "up to 5MB")
}

func TestStaticFiles(t *testing.T) {
	files := StaticFiles()
	for _, name := range []string{"app.js", "style.css"} {
		f, err := files.Open(name)
		require.NoError(t, err, name)
		require.NoError(t, f.Close())
	}
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	frames := 0
	r := NewTerminalRenderer(&buf, true)
	r.sleep = func(time.Duration) { frames++ }

	result := &types.AnalysisResult{
		ScoreOverall: 72,
		Scores:       types.CategoryScores{Impact: 65, Clarity: 80, Structure: 75, Skills: 70, ATSCompatibility: 68},
	}
	require.NoError(t, r.RenderScores(context.Background(), result))

	out := buf.String()
	assert.Greater(t, frames, 60)
	assert.True(t, strings.HasSuffix(out,
		"\rOverall Score  72 | Impact  65 | Clarity  80 | Structure  75 | Skills  70 | ATS Score  68\n"))

	buf.Reset()
	require.NoError(t, NewTerminalRenderer(&buf, false).RenderScores(context.Background(), result))
	assert.Equal(t, 1, strings.Count(buf.String(), "\r"))
}
