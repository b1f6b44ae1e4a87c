package picker

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu  sync.Mutex
	got []T
}

func (r *recorder[T]) record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, v)
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.got...)
}

func TestDebouncer_ForwardsOnlyLastValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder[int]{}
	d := NewDebouncer(clock, time.Second, rec.record)

	for i := 1; i <= 5; i++ {
		d.Push(i)
		clock.Advance(100 * time.Millisecond)
	}

	v, ok := d.Pending()
	require.True(t, ok)
	assert.Equal(t, 5, v)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return len(rec.values()) == 1 }, waitFor, tick)
	assert.Equal(t, []int{5}, rec.values())

	_, ok = d.Pending()
	assert.False(t, ok)
}

func TestDebouncer_RestartsTimerOnPush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder[string]{}
	d := NewDebouncer(clock, time.Second, rec.record)

	d.Push("a")
	clock.Advance(900 * time.Millisecond)
	d.Push("b")
	clock.Advance(900 * time.Millisecond)

	assert.Never(t, func() bool { return len(rec.values()) > 0 }, 50*time.Millisecond, tick)

	clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.values()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"b"}, rec.values())
}

func TestDebouncer_SeparateWindowsForwardEach(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder[int]{}
	d := NewDebouncer(clock, time.Second, rec.record)

	d.Push(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return len(rec.values()) == 1 }, waitFor, tick)

	d.Push(2)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return len(rec.values()) == 2 }, waitFor, tick)

	assert.Equal(t, []int{1, 2}, rec.values())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder[int]{}
	d := NewDebouncer(clock, time.Second, rec.record)

	d.Push(1)
	d.Stop()
	clock.Advance(2 * time.Second)

	assert.Never(t, func() bool { return len(rec.values()) > 0 }, 50*time.Millisecond, tick)
	_, ok := d.Pending()
	assert.False(t, ok)

	d.Push(2)
	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return len(rec.values()) > 0 }, 50*time.Millisecond, tick)
}

func TestDebouncer_DefaultQuietPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder[int]{}
	d := NewDebouncer(clock, 0, rec.record)

	d.Push(7)
	clock.Advance(DefaultQuietPeriod - time.Millisecond)
	assert.Never(t, func() bool { return len(rec.values()) > 0 }, 50*time.Millisecond, tick)

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.values()) == 1 }, waitFor, tick)
}
