package tsdb

import (
	"testing"

	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
)

func TestNew_NoWriteTimeout(t *testing.T) {
	c, err := New(config.TSDBConfig{Enabled: true, URL: "http://127.0.0.1:8428/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.httpClient.Timeout != 0 {
		t.Errorf("http client timeout = %v, want none", c.httpClient.Timeout)
	}
	if c.url != "http://127.0.0.1:8428" {
		t.Errorf("url = %q, want trailing slash trimmed", c.url)
	}
}
