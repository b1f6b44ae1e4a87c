package main

import (
	"context"
	"strings"
	"testing"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
	"github.com/couchcryptid/issue-locator/internal/picker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Coordinate
		wantErr bool
	}{
		{in: "40.0,-74.0", want: domain.Coordinate{Lat: 40, Lon: -74}},
		{in: "51.5 -0.12", want: domain.Coordinate{Lat: 51.5, Lon: -0.12}},
		{in: "0, 0", want: domain.Coordinate{}},
		{in: "40.0", wantErr: true},
		{in: "north,south", wantErr: true},
		{in: "95,0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCoordinate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type nopGeocoder struct{}

func (nopGeocoder) ReverseGeocode(context.Context, domain.Coordinate) (domain.GeocodeResult, error) {
	return domain.GeocodeResult{DisplayName: "x"}, nil
}

func TestFeedClicks(t *testing.T) {
	binder := picker.NewFormBinder()
	p, err := picker.New(nopGeocoder{}, binder, picker.Options{Metrics: observability.NewMetricsForTesting()})
	require.NoError(t, err)
	defer p.Close()

	input := "# comment\n40.0,-74.0\n\nwait 1ms\n40.1,-74.1\n"
	require.NoError(t, feedClicks(context.Background(), strings.NewReader(input), p))
	assert.Equal(t, domain.Coordinate{Lat: 40.1, Lon: -74.1}, binder.Snapshot().Coordinate())
}

func TestFeedClicks_BadLine(t *testing.T) {
	p, err := picker.New(nopGeocoder{}, picker.NewFormBinder(), picker.Options{Metrics: observability.NewMetricsForTesting()})
	require.NoError(t, err)
	defer p.Close()

	err = feedClicks(context.Background(), strings.NewReader("1,2\nbogus\n"), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
