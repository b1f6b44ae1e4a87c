//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/issue-locator/internal/adapter/http"
	"github.com/couchcryptid/issue-locator/internal/adapter/kafka"
	"github.com/couchcryptid/issue-locator/internal/adapter/openepi"
	"github.com/couchcryptid/issue-locator/internal/config"
	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/geocoding"
	"github.com/couchcryptid/issue-locator/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLookupTopic = "test-location-lookups"

// fakeOpenEpi answers every reverse lookup with a fixed Downing Street feature.
func fakeOpenEpi(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"properties":{"housenumber":"10","street":"Downing Street","city":"London","country":"United Kingdom"},"geometry":{"coordinates":[-0.12,51.5]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestReverseLookupPublishesEvent drives a request through the HTTP handler,
// the geocoding chain and the Kafka writer, then reads the event back.
func TestReverseLookupPublishesEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLookupTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaLookupTopic: testLookupTopic}

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	upstream := openepi.NewClient(fakeOpenEpi(t).URL, 5*time.Second, metrics, logger)
	chain := geocoding.NewCachedGeocoder(
		geocoding.NewPublishing(upstream, writer, openepi.Provider, metrics, logger),
		metrics, logger,
		geocoding.Tier{Name: "memory", Store: geocoding.NewLRUStore(10, time.Hour, nil)},
	)
	svc := geocoding.NewService(chain, 30*time.Second, metrics, logger)
	srv := httpadapter.NewServer(":0", svc, httpadapter.AlwaysReady{}, logger)

	for range 2 {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/location/reverse?lat=51.5&lon=-0.12", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result domain.GeocodeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "10 Downing Street, London, United Kingdom", result.DisplayName)
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testLookupTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read lookup event")

	var event domain.LookupEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, event.ID, string(msg.Key))
	assert.Equal(t, openepi.Provider, event.Provider)
	assert.Equal(t, "10 Downing Street, London, United Kingdom", event.DisplayName)
	assert.Equal(t, "London", event.City)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, openepi.Provider, headers["provider"])
	assert.NotEmpty(t, headers["resolved_at"])

	// The second request was a cache hit and must not have published again.
	lag, err := consumer.ReadLag(ctx)
	require.NoError(t, err)
	assert.Zero(t, lag)
}
