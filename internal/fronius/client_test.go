package fronius

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
)

// newTestClient points a Client at srv.
func newTestClient(t *testing.T, srv *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(config.InverterConfig{
		Host:           strings.TrimPrefix(srv.URL, "http://"),
		Scheme:         "http",
		RequestTimeout: timeout,
	})
}

func TestClient_Fetch_Success(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "powerflow.json"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, time.Second)
	before := time.Now()

	p, err := c.PowerFlow(context.Background())
	if err != nil {
		t.Fatalf("PowerFlow() error = %v", err)
	}

	if gotMethod != http.MethodGet {
		t.Errorf("method = %s, want GET", gotMethod)
	}
	if gotPath != PowerFlowPath {
		t.Errorf("path = %s, want %s", gotPath, PowerFlowPath)
	}
	if p.URL != srv.URL+PowerFlowPath {
		t.Errorf("Payload.URL = %s", p.URL)
	}
	if p.ReceivedAt.Before(before) {
		t.Errorf("ReceivedAt %v is before the request started", p.ReceivedAt)
	}
	if _, ok := p.Tree["Body"]; !ok {
		t.Error("Payload.Tree missing Body")
	}
}

func TestClient_Meters_UsesSystemScope(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"Body":{"Data":{}},"Head":{"Timestamp":"2026-10-19T10:00:00+02:00"}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv, time.Second).Meters(context.Background()); err != nil {
		t.Fatalf("Meters() error = %v", err)
	}
	if gotQuery != "Scope=System" {
		t.Errorf("query = %q, want Scope=System", gotQuery)
	}
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantIs  error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantIs: ErrHTTPStatus,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			wantIs: ErrHTTPStatus,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>busy</html>"))
			},
			wantIs: ErrMalformedResponse,
		},
		{
			name: "array body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[1,2,3]`))
			},
			wantIs: ErrMalformedResponse,
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
			wantIs: ErrMalformedResponse,
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`))
			},
			wantIs: ErrMalformedResponse,
		},
		{
			name: "slow device",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			wantIs: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p, err := newTestClient(t, srv, 100*time.Millisecond).PowerFlow(context.Background())
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("PowerFlow() error = %v, want %v", err, tt.wantIs)
			}
			if p != nil {
				t.Error("PowerFlow() returned a payload alongside an error")
			}
		})
	}
}

func TestClient_Fetch_StatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, time.Second).Meters(context.Background())

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Meters() error = %v, want *HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", statusErr.StatusCode)
	}
	if statusErr.URL != srv.URL+MeterPath {
		t.Errorf("URL = %s", statusErr.URL)
	}
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(t, srv, time.Second)
	srv.Close()

	_, err := c.PowerFlow(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("PowerFlow() error = %v, want ErrTransport", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("connection refused classified as timeout")
	}
}

func TestClient_Fetch_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv, 10*time.Second).PowerFlow(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("PowerFlow() error = %v, want ErrTimeout", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(config.InverterConfig{Host: "fronius.local"})

	if c.BaseURL() != "http://fronius.local" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.httpClient.Timeout != defaultRequestTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, defaultRequestTimeout)
	}
}
