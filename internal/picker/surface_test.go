package picker

import (
	"testing"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSurface_SingleMarkerMoves(t *testing.T) {
	s, err := NewMapSurface(DefaultCenter, DefaultZoom)
	require.NoError(t, err)

	_, ok := s.Marker()
	assert.False(t, ok)

	require.NoError(t, s.Click(coord(1, 2)))
	s.BindLabel("first")
	require.NoError(t, s.Click(coord(3, 4)))

	m, ok := s.Marker()
	require.True(t, ok)
	assert.Equal(t, coord(3, 4), m.Position)
	assert.Empty(t, m.Label, "moving the marker clears its label")
}

func TestMapSurface_ListenersInOrder(t *testing.T) {
	s, err := NewMapSurface(DefaultCenter, 0)
	require.NoError(t, err)

	var calls []string
	s.OnClick(func(domain.Coordinate) { calls = append(calls, "a") })
	detach := s.OnClick(func(domain.Coordinate) { calls = append(calls, "b") })

	require.NoError(t, s.Click(coord(0, 0)))
	detach()
	require.NoError(t, s.Click(coord(1, 1)))

	assert.Equal(t, []string{"a", "b", "a"}, calls)
}

func TestMapSurface_SetLocationRecenters(t *testing.T) {
	s, err := NewMapSurface(DefaultCenter, 10)
	require.NoError(t, err)

	var clicked []domain.Coordinate
	s.OnClick(func(c domain.Coordinate) { clicked = append(clicked, c) })

	target := coord(-33.87, 151.21)
	require.NoError(t, s.SetLocation(target))

	center, zoom := s.View()
	assert.Equal(t, target, center)
	assert.Equal(t, 10, zoom)
	assert.Equal(t, []domain.Coordinate{target}, clicked)
}

func TestMapSurface_RejectsInvalid(t *testing.T) {
	_, err := NewMapSurface(coord(91, 0), DefaultZoom)
	require.ErrorIs(t, err, domain.ErrInvalidLatitude)

	s, err := NewMapSurface(DefaultCenter, DefaultZoom)
	require.NoError(t, err)
	require.ErrorIs(t, s.Click(coord(0, -181)), domain.ErrInvalidLongitude)
	require.ErrorIs(t, s.SetLocation(coord(-91, 0)), domain.ErrInvalidLatitude)
}

func TestMapSurface_Close(t *testing.T) {
	s, err := NewMapSurface(DefaultCenter, DefaultZoom)
	require.NoError(t, err)

	called := false
	s.OnClick(func(domain.Coordinate) { called = true })
	s.Close()

	require.NoError(t, s.Click(coord(1, 1)))
	assert.False(t, called)
	_, ok := s.Marker()
	assert.False(t, ok)
}
