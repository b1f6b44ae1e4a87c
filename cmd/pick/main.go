// Command pick drives the location picker from the terminal. Each stdin line
// is a map click "lat,lon" (or "lat lon"); a line "wait <duration>" pauses
// between clicks. Form updates are printed to stdout as JSON lines, and the
// final form state is printed once the last lookup settles.
//
// Usage:
//
//	printf '40.0,-74.0\nwait 200ms\n40.1,-74.1\n' | go run ./cmd/pick -api http://localhost:8080/api/v1
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/issue-locator/internal/adapter/locationapi"
	"github.com/couchcryptid/issue-locator/internal/config"
	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
	"github.com/couchcryptid/issue-locator/internal/picker"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

type update struct {
	Event   string             `json:"event"`
	Coord   *domain.Coordinate `json:"coordinate,omitempty"`
	Address string             `json:"address,omitempty"`
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	apiURL := flag.String("api", cfg.LocationAPIURL, "location API base URL")
	quiet := flag.Duration("quiet", cfg.PickerQuietPeriod, "debounce quiet period")
	at := flag.String("at", "", "pre-fill the picker with a saved location \"lat,lon\"")
	flag.Parse()

	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewMetrics()
	client := locationapi.NewClient(*apiURL, cfg.PickerLookupTimeout, metrics, logger)

	out := json.NewEncoder(os.Stdout)
	binder := picker.NewFormBinder()
	binder.OnCoordinatesChanged(func(c domain.Coordinate) {
		_ = out.Encode(update{Event: "coordinates", Coord: &c})
	})
	binder.OnAddressResolved(func(addr string) {
		_ = out.Encode(update{Event: "address", Address: addr})
	})

	p, err := picker.New(client, binder, picker.Options{
		QuietPeriod:   *quiet,
		LookupTimeout: cfg.PickerLookupTimeout,
		Center:        domain.Coordinate{Lat: cfg.MapCenterLat, Lon: cfg.MapCenterLon},
		Zoom:          cfg.MapZoom,
		Logger:        logger,
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *at != "" {
		c, err := parseCoordinate(*at)
		if err != nil {
			return fmt.Errorf("-at: %w", err)
		}
		if err := p.SetLocation(c); err != nil {
			return fmt.Errorf("-at: %w", err)
		}
	}

	if err := feedClicks(ctx, os.Stdin, p); err != nil {
		return err
	}

	if err := waitSettled(ctx, p, *quiet+cfg.PickerLookupTimeout+time.Second); err != nil {
		return err
	}
	return out.Encode(p.Snapshot())
}

func feedClicks(ctx context.Context, r io.Reader, p *picker.LocationPicker) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(text, "wait "); ok {
			d, err := time.ParseDuration(strings.TrimSpace(rest))
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
			continue
		}

		c, err := parseCoordinate(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := p.Click(c); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

// waitSettled polls until the latest click has a resolved or failed address.
func waitSettled(ctx context.Context, p *picker.LocationPicker, limit time.Duration) error {
	deadline := time.After(limit)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		form := p.Snapshot()
		if form.State != picker.StateAwaitingGeocode && !form.Loading {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return errors.New("timed out waiting for the address lookup")
		case <-ticker.C:
		}
	}
}

func parseCoordinate(s string) (domain.Coordinate, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return domain.Coordinate{}, fmt.Errorf("want \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	return domain.NewCoordinate(lat, lon)
}
