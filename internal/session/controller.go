package session

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yegors/co-wx/internal/debounce"
	"github.com/yegors/co-wx/internal/geo"
	"github.com/yegors/co-wx/internal/weather"
	"github.com/yegors/co-wx/pkg/logger"
)

// Update kinds passed to the Emitter
const (
	UpdateRender      = "render"
	UpdateSuggestions = "suggestions"
)

// Backend performs lookups for a controller
type Backend interface {
	Lookup(ctx context.Context, q weather.Query) (*weather.Snapshot, error)
	Suggest(ctx context.Context, text string) []weather.Suggestion
	LastCity(ctx context.Context) string
}

// Emitter receives every state change. It is called with the controller
// lock held and must not call back into the controller.
type Emitter func(kind string, s State)

// Options configures a Controller
type Options struct {
	MinQueryLength  int
	BlurMinLength   int // below this, blur clears the error and the pending search
	SuggestDelay    time.Duration
	SearchDelay     time.Duration
	RefreshInterval time.Duration // "updated N min ago" refresh period
	Fallback        *geo.Position
}

// DefaultOptions returns the stock delays and limits
func DefaultOptions() Options {
	return Options{
		MinQueryLength:  3,
		BlurMinLength:   2,
		SuggestDelay:    300 * time.Millisecond,
		SearchDelay:     800 * time.Millisecond,
		RefreshInterval: time.Minute,
	}
}

// Controller owns the State of one connection and turns UI events into
// transitions, lookups and emitted updates
type Controller struct {
	backend Backend
	opts    Options
	emit    Emitter
	logger  *logger.Logger
	now     func() time.Time

	suggest *debounce.Debouncer
	search  *debounce.Debouncer

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool

	mu    sync.Mutex
	state State
}

// NewController creates a controller for one connection
func NewController(ctx context.Context, backend Backend, opts Options, emit Emitter, log *logger.Logger) *Controller {
	defaults := DefaultOptions()
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaults.MinQueryLength
	}
	if opts.BlurMinLength <= 0 {
		opts.BlurMinLength = defaults.BlurMinLength
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaults.RefreshInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Controller{
		backend: backend,
		opts:    opts,
		emit:    emit,
		logger:  log.Named("session"),
		now:     time.Now,
		suggest: debounce.New(opts.SuggestDelay),
		search:  debounce.New(opts.SearchDelay),
		ctx:     ctx,
		cancel:  cancel,
		state:   New(),
	}
}

// Start loads the stored last city and begins refreshing the relative
// "updated" label
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.wg.Add(2)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.load(weather.CityQuery(c.backend.LastCity(c.ctx)))
	}()
	go func() {
		defer c.wg.Done()
		c.refreshLabel()
	}()
}

// Stop cancels pending timers and in-flight lookups and waits for them.
// No update is emitted afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.suggest.Cancel()
	c.search.Cancel()
	c.cancel()
	c.wg.Wait()
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input handles typing in the search box
func (c *Controller) Input(text string) {
	c.mu.Lock()
	c.state = c.state.SetInput(text)
	c.mu.Unlock()

	value := NormalizeCity(text)
	if value == "" {
		c.suggest.Cancel()
		c.apply(UpdateRender, func(s State) State { return s.SetError(ErrorNone).ClearSuggestions() })
		return
	}

	c.suggest.Schedule(func(gen uint64) {
		c.spawn(func() { c.loadSuggestions(gen, value) })
	})
}

// Submit validates the input and schedules the search
func (c *Controller) Submit(text string) {
	c.suggest.Cancel()

	city, kind := ValidateCity(text, c.opts.MinQueryLength)
	c.apply(UpdateRender, func(s State) State {
		return s.SetInput(text).ClearSuggestions().SetError(kind)
	})
	if city == "" {
		c.search.Cancel()
		return
	}

	c.search.Schedule(func(gen uint64) {
		c.spawn(func() { c.load(weather.CityQuery(city)) })
	})
}

// Blur handles the search box losing focus
func (c *Controller) Blur(text string) {
	if utf8.RuneCountInString(NormalizeCity(text)) >= c.opts.BlurMinLength {
		return
	}
	c.search.Cancel()
	c.apply(UpdateRender, func(s State) State { return s.SetError(ErrorNone) })
}

// SelectSuggestion looks up the city of a clicked suggestion
func (c *Controller) SelectSuggestion(text string) {
	c.suggest.Cancel()
	c.search.Cancel()

	city := SuggestionCity(text)
	c.apply(UpdateRender, func(s State) State { return s.ClearSuggestions().SetInput("") })
	if city == "" {
		return
	}
	c.spawn(func() { c.load(weather.CityQuery(city)) })
}

// Dismiss handles a click outside the search block: it hides the
// suggestions, including any still being fetched, and clears the error line
func (c *Controller) Dismiss() {
	c.suggest.Cancel()
	c.apply(UpdateRender, func(s State) State { return s.ClearSuggestions().SetError(ErrorNone) })
}

// Geolocation handles a position report from the browser
func (c *Controller) Geolocation(report geo.Report) {
	pos, err := geo.Resolve(report, c.opts.Fallback)
	if err != nil {
		c.logger.Debug("Geolocation failed", logger.Error(err))
		c.apply(UpdateRender, func(s State) State { return s.LocateFailed(err) })
		return
	}

	c.apply(UpdateRender, func(s State) State { return s.BeginLocate() })
	c.spawn(func() { c.load(weather.CoordsQuery(pos.Lat, pos.Lon)) })
}

// Refresh reloads the current city, else the stored one, else the default
func (c *Controller) Refresh() {
	c.mu.Lock()
	city := ""
	if c.state.Current != nil {
		city = c.state.Current.City
	}
	c.mu.Unlock()

	c.spawn(func() {
		if city == "" {
			city = c.backend.LastCity(c.ctx)
		}
		c.load(weather.CityQuery(city))
	})
}

// SetView switches the forecast list
func (c *Controller) SetView(mode ViewMode) {
	c.apply(UpdateRender, func(s State) State { return s.SetView(mode) })
}

// SelectDay opens a daily card
func (c *Controller) SelectDay(i int) {
	c.apply(UpdateRender, func(s State) State { return s.SelectDay(i) })
}

// Back closes the detailed panel
func (c *Controller) Back() {
	c.apply(UpdateRender, func(s State) State { return s.Back() })
}

// Render re-emits the current state
func (c *Controller) Render() {
	c.apply(UpdateRender, func(s State) State { return s })
}

func (c *Controller) load(q weather.Query) {
	if c.ctx.Err() != nil {
		return
	}
	c.apply(UpdateRender, func(s State) State { return s.BeginLoad() })

	snap, err := c.backend.Lookup(c.ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		c.logger.Info("Lookup failed",
			logger.String("query", q.String()),
			logger.Error(err))
		lastCity := ""
		if c.state.Current != nil {
			lastCity = c.state.Current.City
		}
		c.setLocked(UpdateRender, c.state.ApplyFailure(err, lastCity))
		return
	}
	c.setLocked(UpdateRender, c.state.ApplySnapshot(snap, !q.Coords))
}

func (c *Controller) loadSuggestions(gen uint64, text string) {
	list := c.backend.Suggest(c.ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	// A newer keystroke or a cancel superseded this lookup
	if c.closed || !c.suggest.IsCurrent(gen) {
		c.logger.Debug("Dropping stale suggestions",
			logger.Uint64("generation", gen),
			logger.String("text", text))
		return
	}
	c.setLocked(UpdateSuggestions, c.state.SetSuggestions(list))
}

func (c *Controller) refreshLabel() {
	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.closed && !c.state.FetchedAt.IsZero() {
				c.setLocked(UpdateRender, c.state)
			}
			c.mu.Unlock()
		}
	}
}

// spawn runs fn on a tracked goroutine unless the controller is stopped
func (c *Controller) spawn(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *Controller) apply(kind string, fn func(State) State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.setLocked(kind, fn(c.state))
}

func (c *Controller) setLocked(kind string, s State) {
	c.state = s.At(c.now())
	if c.emit != nil {
		c.emit(kind, c.state)
	}
}
