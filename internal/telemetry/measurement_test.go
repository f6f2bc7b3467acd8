package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestMeasurement_Check(t *testing.T) {
	tests := []struct {
		name    string
		m       Measurement
		wantErr error
	}{
		{
			name: "valid",
			m:    Measurement{Name: "SiteValues", Fields: map[string]any{"P_PV": 1000.0}, Time: time.Now()},
		},
		{
			name:    "no fields",
			m:       Measurement{Name: "SiteValues", Fields: map[string]any{}},
			wantErr: ErrNoFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Check()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Check() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := (Measurement{Fields: map[string]any{"a": 1.0}}).Check(); err == nil {
		t.Error("Check() should reject an empty measurement name")
	}
}

func TestWriteError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&WriteError{Bucket: "SiteBucket", Measurement: "SiteValues", Cause: cause})

	if !errors.Is(err, ErrWriteFailed) {
		t.Error("errors.Is(err, ErrWriteFailed) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	var we *WriteError
	if !errors.As(err, &we) || we.Bucket != "SiteBucket" {
		t.Errorf("errors.As() bucket = %v", we)
	}
}
