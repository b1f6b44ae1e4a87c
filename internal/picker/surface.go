package picker

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/issue-locator/internal/domain"
)

// DefaultZoom matches the issue form's initial map zoom.
const DefaultZoom = 13

// DefaultCenter is used when no initial location is configured (New York City).
var DefaultCenter = domain.Coordinate{Lat: 40.7128, Lon: -74.006}

// Marker is the single pin on the map.
type Marker struct {
	Position domain.Coordinate
	Label    string
}

// MapSurface models the map widget: a view centre, a zoom level and at most
// one marker. Listeners run synchronously, in registration order, for every
// accepted click.
type MapSurface struct {
	dispatch sync.Mutex // serialises clicks so listeners observe click order

	mu          sync.Mutex
	center      domain.Coordinate
	zoom        int
	initialZoom int
	marker      *Marker
	listeners   map[int]func(domain.Coordinate)
	order       []int
	nextID      int
	closed      bool
}

// NewMapSurface creates a surface centred on center. An invalid centre is an
// environment precondition failure.
func NewMapSurface(center domain.Coordinate, zoom int) (*MapSurface, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("map center: %w", err)
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &MapSurface{
		center:      center,
		zoom:        zoom,
		initialZoom: zoom,
		listeners:   make(map[int]func(domain.Coordinate)),
	}, nil
}

// OnClick registers fn for every click. The returned func detaches it.
func (s *MapSurface) OnClick(fn func(domain.Coordinate)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Click places or moves the marker to c, clears its label and notifies
// listeners. Clicks on a closed surface are ignored.
func (s *MapSurface) Click(c domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.marker == nil {
		s.marker = &Marker{}
	}
	s.marker.Position = c
	s.marker.Label = ""
	listeners := collect(s.listeners, s.order)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
	return nil
}

// SetLocation recentres the view at the initial zoom and then behaves as a
// click at c. Used to pre-fill the form from saved data.
func (s *MapSurface) SetLocation(c domain.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.closed {
		s.center = c
		s.zoom = s.initialZoom
	}
	s.mu.Unlock()
	return s.Click(c)
}

// BindLabel sets the marker popup text. It is a no-op before the first click.
func (s *MapSurface) BindLabel(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker != nil {
		s.marker.Label = text
	}
}

// Marker returns a copy of the marker, if one has been placed.
func (s *MapSurface) Marker() (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return Marker{}, false
	}
	return *s.marker, true
}

// View returns the current centre and zoom.
func (s *MapSurface) View() (domain.Coordinate, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.zoom
}

// Close detaches every listener. Later clicks are ignored.
func (s *MapSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.listeners)
	s.order = nil
}
