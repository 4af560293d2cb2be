// Package presentation owns the visible view-state, the notification banners
// and the rendering of review results for the browser and the terminal.
package presentation

import (
	"sync"
	"time"

	"resumegrade/internal/types"
)

// ViewKind identifies the single visible region
type ViewKind string

const (
	ViewUpload  ViewKind = "upload"
	ViewLoading ViewKind = "loading"
	ViewResults ViewKind = "results"
)

// AllViews lists the regions in page order
var AllViews = []ViewKind{ViewUpload, ViewLoading, ViewResults}

// DefaultLoadingMessage is shown when ShowLoading gets an empty message
const DefaultLoadingMessage = "AI recruiter reviewing your resume..."

// BannerKind distinguishes error and success notifications
type BannerKind string

const (
	BannerError   BannerKind = "error"
	BannerSuccess BannerKind = "success"
)

// Banner lifetimes
const (
	ErrorBannerDuration   = 5000 * time.Millisecond
	SuccessBannerDuration = 3000 * time.Millisecond
)

// ViewState is the one visible region and what it displays
type ViewState struct {
	Kind    ViewKind              `json:"view"`
	Message string                `json:"message,omitempty"`
	Result  *types.AnalysisResult `json:"result,omitempty"`
}

// Banner is a transient notification
type Banner struct {
	ID        int        `json:"id"`
	Kind      BannerKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Region reports one page region and whether it is visible
type Region struct {
	Kind    ViewKind `json:"kind"`
	Visible bool     `json:"visible"`
}

// Snapshot is the view plus the banners alive at a point in time
type Snapshot struct {
	View     ViewState `json:"view"`
	Banners  []Banner  `json:"banners"`
	Revision uint64    `json:"revision"`
	ShownAt  time.Time `json:"shownAt"`
	TakenAt  time.Time `json:"takenAt"`
}

// Controller holds the view-state. Every Show* transition replaces the whole
// view, so exactly one region is visible at a time.
type Controller struct {
	mu       sync.Mutex
	now      func() time.Time
	view     ViewState
	banners  []Banner
	nextID   int
	revision uint64
	shownAt  time.Time
	onChange []func(ViewState)
}

// NewController starts on the upload view. A nil clock uses time.Now.
func NewController(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	c := &Controller{now: now}
	c.setView(ViewState{Kind: ViewUpload})
	return c
}

func (c *Controller) setView(view ViewState) {
	c.view = view
	c.revision++
	c.shownAt = c.now()
}

// OnChange registers fn to run after every view transition, outside the lock
func (c *Controller) OnChange(fn func(ViewState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) notify() {
	c.mu.Lock()
	view := c.view
	listeners := append([]func(ViewState)(nil), c.onChange...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
}

// ShowUpload shows the upload zone
func (c *Controller) ShowUpload() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setView(ViewState{Kind: ViewUpload})
}

// ShowLoading shows the loading indicator with message
func (c *Controller) ShowLoading(message string) {
	if message == "" {
		message = DefaultLoadingMessage
	}
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setView(ViewState{Kind: ViewLoading, Message: message})
}

// ShowResults shows a review. The count-up animations restart from the
// moment of this call.
func (c *Controller) ShowResults(result *types.AnalysisResult) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setView(ViewState{Kind: ViewResults, Result: result})
}

// ShowError returns to the upload view and raises an error banner
func (c *Controller) ShowError(message string) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setView(ViewState{Kind: ViewUpload})
	c.addBanner(BannerError, message, ErrorBannerDuration)
}

// ShowBannerError raises an error banner without changing the view
func (c *Controller) ShowBannerError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addBanner(BannerError, message, ErrorBannerDuration)
}

// ShowSuccess raises a success banner without changing the view
func (c *Controller) ShowSuccess(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addBanner(BannerSuccess, message, SuccessBannerDuration)
}

func (c *Controller) addBanner(kind BannerKind, message string, lifetime time.Duration) {
	c.nextID++
	c.banners = append(c.banners, Banner{
		ID:        c.nextID,
		Kind:      kind,
		Message:   message,
		ExpiresAt: c.now().Add(lifetime),
	})
	c.revision++
}

// View returns the current view-state
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Regions reports every region with exactly one marked visible
func (c *Controller) Regions() []Region {
	c.mu.Lock()
	defer c.mu.Unlock()

	regions := make([]Region, 0, len(AllViews))
	for _, kind := range AllViews {
		regions = append(regions, Region{Kind: kind, Visible: kind == c.view.Kind})
	}
	return regions
}

// Snapshot returns the view and the banners that have not yet expired.
// Expired banners are dropped.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := c.banners[:0]
	for _, banner := range c.banners {
		if now.Before(banner.ExpiresAt) {
			live = append(live, banner)
		}
	}
	c.banners = live

	banners := make([]Banner, len(live))
	copy(banners, live)

	return Snapshot{
		View:     c.view,
		Banners:  banners,
		Revision: c.revision,
		ShownAt:  c.shownAt,
		TakenAt:  now,
	}
}

// AnimationElapsed is how far into the count-up the results view is
func (s Snapshot) AnimationElapsed() time.Duration {
	if s.View.Kind != ViewResults {
		return 0
	}
	return s.TakenAt.Sub(s.ShownAt)
}
