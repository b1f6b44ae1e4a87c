package picker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultLookupTimeout bounds a single reverse geocoding request.
const DefaultLookupTimeout = 10 * time.Second

// Options configures a LocationPicker. Zero values fall back to defaults;
// Metrics is required.
type Options struct {
	QuietPeriod   time.Duration
	LookupTimeout time.Duration
	Clock         clockwork.Clock
	Center        domain.Coordinate
	Zoom          int
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

type lookup struct {
	cycle Cycle
	coord domain.Coordinate
}

// LocationPicker connects a MapSurface to a FormBinder. Every click updates
// the form coordinates immediately; the address is resolved once clicks go
// quiet, and only the result for the latest click is ever applied.
type LocationPicker struct {
	surface  *MapSurface
	binder   *FormBinder
	geocoder domain.Geocoder
	debounce *Debouncer[lookup]
	clock    clockwork.Clock
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// formMu orders a click's form writes against a lookup's result writes.
	formMu sync.Mutex

	mu       sync.Mutex
	inflight int
	closed   bool
	wg       sync.WaitGroup

	detach func()
}

// New mounts a picker over a fresh map surface and starts listening for clicks.
func New(geocoder domain.Geocoder, binder *FormBinder, opts Options) (*LocationPicker, error) {
	if opts.Metrics == nil {
		return nil, errors.New("picker: metrics are required")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Center == (domain.Coordinate{}) {
		opts.Center = DefaultCenter
	}

	surface, err := NewMapSurface(opts.Center, opts.Zoom)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &LocationPicker{
		surface:  surface,
		binder:   binder,
		geocoder: geocoder,
		clock:    opts.Clock,
		timeout:  opts.LookupTimeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
	p.debounce = NewDebouncer(opts.Clock, opts.QuietPeriod, p.startLookup)
	p.detach = surface.OnClick(p.handleClick)
	return p, nil
}

// Surface returns the map the picker listens to.
func (p *LocationPicker) Surface() *MapSurface { return p.surface }

// Binder returns the bound form.
func (p *LocationPicker) Binder() *FormBinder { return p.binder }

// Snapshot copies the form fields and reports whether a lookup is in flight.
func (p *LocationPicker) Snapshot() FormState {
	form := p.binder.Snapshot()
	form.Loading = p.Loading()
	return form
}

// Click forwards a user click at c to the map surface.
func (p *LocationPicker) Click(c domain.Coordinate) error {
	return p.surface.Click(c)
}

// SetLocation pre-fills the picker from saved coordinates.
func (p *LocationPicker) SetLocation(c domain.Coordinate) error {
	return p.surface.SetLocation(c)
}

// Loading reports whether a lookup has been sent and not yet answered.
func (p *LocationPicker) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

// Close detaches from the surface, cancels any pending or in-flight lookup and
// waits for lookup goroutines to exit. No form write happens after Close
// returns.
func (p *LocationPicker) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.detach()
	p.surface.Close()
	p.debounce.Stop()
	p.cancel()
	p.wg.Wait()
}

func (p *LocationPicker) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *LocationPicker) handleClick(c domain.Coordinate) {
	if p.isClosed() {
		return
	}

	p.formMu.Lock()
	defer p.formMu.Unlock()

	cycle := p.binder.SetCoordinates(c)
	p.surface.BindLabel("")
	p.debounce.Push(lookup{cycle: cycle, coord: c})
	p.metrics.PickerClicks.Inc()

	p.logger.Debug("map click", "lat", c.Lat, "lon", c.Lon, "cycle", uint64(cycle))
}

// startLookup runs on the debouncer's timer and must not block.
func (p *LocationPicker) startLookup(l lookup) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.inflight++
	p.wg.Add(1)
	p.mu.Unlock()

	p.metrics.PickerLookupsPending.Inc()
	go p.runLookup(l)
}

func (p *LocationPicker) runLookup(l lookup) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
		p.metrics.PickerLookupsPending.Dec()
	}()

	ctx, cancel := clockwork.WithTimeout(p.ctx, p.clock, p.timeout)
	defer cancel()

	address, ok := domain.ResolveAddress(ctx, p.geocoder, l.coord, p.logger)

	p.formMu.Lock()
	defer p.formMu.Unlock()

	if p.isClosed() || p.ctx.Err() != nil {
		p.metrics.PickerLookups.WithLabelValues("discarded").Inc()
		return
	}

	if !ok {
		if p.binder.SetFailed(l.cycle) {
			p.surface.BindLabel(domain.AddressPlaceholder)
			p.metrics.PickerLookups.WithLabelValues("failed").Inc()
			return
		}
		p.metrics.PickerLookups.WithLabelValues("stale").Inc()
		return
	}

	if !p.binder.SetAddress(l.cycle, address) {
		p.logger.Debug("dropping stale address", "cycle", uint64(l.cycle))
		p.metrics.PickerLookups.WithLabelValues("stale").Inc()
		return
	}
	p.surface.BindLabel(address)
	p.metrics.PickerLookups.WithLabelValues("resolved").Inc()
}
