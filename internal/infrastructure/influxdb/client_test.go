package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// fakeInflux records write requests and answers pings.
type fakeInflux struct {
	mu          sync.Mutex
	writeStatus int
	bodies      []string
	queries     []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.queries = append(f.queries, r.URL.RawQuery)
		status := f.writeStatus
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		if status >= 300 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"bucket not found"}`))
			return
		}
		w.WriteHeader(status)
	default:
		http.NotFound(w, r)
	}
}

func newFakeInflux(t *testing.T) (*fakeInflux, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, config.InfluxDBConfig{
		Enabled:     true,
		URL:         srv.URL,
		Token:       "test-token",
		Org:         "home",
		SiteBucket:  "SiteBucket",
		MeterBucket: "MeterBucket",
	}
}

func siteMeasurement() telemetry.Measurement {
	return telemetry.Measurement{
		Name:   "SiteValues",
		Tags:   map[string]string{"location": "home", "version": "12"},
		Fields: map[string]any{"P_PV": 1000.0, "P_Grid": -250.0},
		Time:   time.Date(2026, 10, 19, 8, 15, 30, 123000000, time.UTC),
	}
}

func TestConnect(t *testing.T) {
	_, cfg := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, cfg := newFakeInflux(t)
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, cfg := newFakeInflux(t)
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNew_DoesNotPing(t *testing.T) {
	_, cfg := newFakeInflux(t)
	cfg.URL = "http://127.0.0.1:59999"

	client, err := influxdb.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail for an unreachable server")
	}
}

func TestWrite(t *testing.T) {
	fake, cfg := newFakeInflux(t)
	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.Write(context.Background(), "SiteBucket", "home", siteMeasurement()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.bodies) != 1 {
		t.Fatalf("write requests = %d, want 1", len(fake.bodies))
	}

	query := fake.queries[0]
	for _, want := range []string{"bucket=SiteBucket", "org=home", "precision=ms"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}

	line := strings.TrimSpace(fake.bodies[0])
	if !strings.HasPrefix(line, "SiteValues,location=home,version=12 ") {
		t.Errorf("line protocol = %q, want SiteValues with location and version tags", line)
	}
	for _, want := range []string{"P_Grid=-250", "P_PV=1000"} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol = %q, missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, " 1792397730123") {
		t.Errorf("line protocol = %q, want millisecond timestamp 1792397730123", line)
	}
}

func TestWrite_ServerRejects(t *testing.T) {
	fake, cfg := newFakeInflux(t)
	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	fake.mu.Lock()
	fake.writeStatus = http.StatusNotFound
	fake.mu.Unlock()

	err = client.Write(context.Background(), "MeterBucket", "home", siteMeasurement())

	var we *telemetry.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Write() error = %v, want *telemetry.WriteError", err)
	}
	if we.Bucket != "MeterBucket" || we.Measurement != "SiteValues" {
		t.Errorf("WriteError = %+v", we)
	}
	if !errors.Is(err, telemetry.ErrWriteFailed) {
		t.Error("errors.Is(err, ErrWriteFailed) = false")
	}
}

func TestWrite_NoFields(t *testing.T) {
	fake, cfg := newFakeInflux(t)
	client, err := influxdb.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	m := siteMeasurement()
	m.Fields = map[string]any{}

	err = client.Write(context.Background(), "SiteBucket", "home", m)
	if !errors.Is(err, telemetry.ErrNoFields) || !errors.Is(err, telemetry.ErrWriteFailed) {
		t.Errorf("Write() error = %v, want ErrNoFields wrapped in WriteError", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.bodies) != 0 {
		t.Error("empty measurement reached the server")
	}
}

func TestWrite_AfterClose(t *testing.T) {
	_, cfg := newFakeInflux(t)
	client, err := influxdb.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	// Second close is a no-op.
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err = client.Write(context.Background(), "SiteBucket", "home", siteMeasurement())
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("Write() error = %v, want ErrNotConnected", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// TestWrite_LiveServer writes to a real InfluxDB when one is configured.
func TestWrite_LiveServer(t *testing.T) {
	url := os.Getenv("GRAYLOGIC_SOLAR_TEST_INFLUXDB_URL")
	if url == "" {
		t.Skip("GRAYLOGIC_SOLAR_TEST_INFLUXDB_URL not set, skipping integration test")
	}

	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     url,
		Token:   os.Getenv("GRAYLOGIC_SOLAR_TEST_INFLUXDB_TOKEN"),
		Org:     os.Getenv("GRAYLOGIC_SOLAR_TEST_INFLUXDB_ORG"),
	}
	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	defer client.Close()

	m := siteMeasurement()
	m.Time = time.Now().UTC().Truncate(time.Millisecond)
	if err := client.Write(context.Background(), "SiteBucket", cfg.Org, m); err != nil {
		t.Errorf("Write() error = %v", err)
	}
}
