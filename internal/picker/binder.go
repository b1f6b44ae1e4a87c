package picker

import (
	"sync"

	"github.com/couchcryptid/issue-locator/internal/domain"
)

// State is the Form Binder's position in the per-click cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingGeocode
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingGeocode:
		return "awaiting_geocode"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cycle identifies one click. Results carrying an older Cycle are stale.
type Cycle uint64

// FormState is a copy of the bound form fields.
type FormState struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HasCoordinates bool    `json:"hasCoordinates"`
	Address        string  `json:"address"`
	State          State   `json:"-"`
	StateName      string  `json:"state"`
	Loading        bool    `json:"loading"`
}

// Coordinate returns the bound coordinate pair.
func (f FormState) Coordinate() domain.Coordinate {
	return domain.Coordinate{Lat: f.Latitude, Lon: f.Longitude}
}

// FormBinder holds the coordinate and address fields of the enclosing issue
// form. Subscribers are notified outside the internal lock; they must not
// call back into the binder synchronously.
type FormBinder struct {
	mu       sync.Mutex
	coord    domain.Coordinate
	hasCoord bool
	address  string
	state    State
	cycle    Cycle

	nextID       int
	coordSubs    map[int]func(domain.Coordinate)
	addressSubs  map[int]func(string)
	coordOrder   []int
	addressOrder []int
}

// NewFormBinder returns an idle binder with empty fields.
func NewFormBinder() *FormBinder {
	return &FormBinder{
		coordSubs:   make(map[int]func(domain.Coordinate)),
		addressSubs: make(map[int]func(string)),
	}
}

// OnCoordinatesChanged registers fn for every SetCoordinates call.
// The returned func unsubscribes.
func (b *FormBinder) OnCoordinatesChanged(fn func(domain.Coordinate)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.coordSubs[id] = fn
	b.coordOrder = append(b.coordOrder, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.coordSubs, id)
	}
}

// OnAddressResolved registers fn for every accepted SetAddress call.
// Failed lookups do not notify. The returned func unsubscribes.
func (b *FormBinder) OnAddressResolved(fn func(string)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.addressSubs[id] = fn
	b.addressOrder = append(b.addressOrder, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.addressSubs, id)
	}
}

// SetCoordinates writes c, clears the address and starts a new cycle.
func (b *FormBinder) SetCoordinates(c domain.Coordinate) Cycle {
	b.mu.Lock()
	b.cycle++
	cycle := b.cycle
	b.coord = c
	b.hasCoord = true
	b.address = ""
	b.state = StateAwaitingGeocode
	subs := collect(b.coordSubs, b.coordOrder)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
	return cycle
}

// SetAddress writes text if cycle is still current. It reports whether the
// address was applied.
func (b *FormBinder) SetAddress(cycle Cycle, text string) bool {
	b.mu.Lock()
	if cycle != b.cycle || b.state != StateAwaitingGeocode {
		b.mu.Unlock()
		return false
	}
	b.address = text
	b.state = StateResolved
	subs := collect(b.addressSubs, b.addressOrder)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(text)
	}
	return true
}

// SetFailed writes domain.AddressPlaceholder if cycle is still current.
func (b *FormBinder) SetFailed(cycle Cycle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cycle != b.cycle || b.state != StateAwaitingGeocode {
		return false
	}
	b.address = domain.AddressPlaceholder
	b.state = StateFailed
	return true
}

// Current returns the active cycle.
func (b *FormBinder) Current() Cycle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cycle
}

// Reset clears the fields and returns to StateIdle. Pending results for
// earlier cycles are rejected afterwards.
func (b *FormBinder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cycle++
	b.coord = domain.Coordinate{}
	b.hasCoord = false
	b.address = ""
	b.state = StateIdle
}

// Snapshot copies the current fields.
func (b *FormBinder) Snapshot() FormState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return FormState{
		Latitude:       b.coord.Lat,
		Longitude:      b.coord.Lon,
		HasCoordinates: b.hasCoord,
		Address:        b.address,
		State:          b.state,
		StateName:      b.state.String(),
	}
}

// collect returns live subscribers in registration order.
func collect[F any](subs map[int]F, order []int) []F {
	out := make([]F, 0, len(subs))
	for _, id := range order {
		if fn, ok := subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
