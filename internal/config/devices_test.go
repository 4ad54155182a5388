package config

import (
	"testing"

	"github.com/motionnets/mptrain/internal/rerrors"
)

func TestParseDeviceSpec(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantCount int
		wantErr   bool
	}{
		{"integer count", 4, 4, false},
		{"single device", 1, 1, false},
		{"float whole count", float64(2), 2, false},
		{"list of ids", []any{0, 1, 2, 3}, 4, false},
		{"list of float ids", []any{float64(0), float64(1)}, 2, false},
		{"int slice", []int{0, 1}, 2, false},
		{"fractional count", 1.5, 0, true},
		{"string", "two", 0, true},
		{"list with string", []any{0, "one"}, 0, true},
		{"nil", nil, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := ParseDeviceSpec(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !rerrors.Is(err, rerrors.ErrCodeConfiguration) {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if spec.Count() != tc.wantCount {
				t.Errorf("expected count %d, got %d", tc.wantCount, spec.Count())
			}
		})
	}
}

func TestDeviceSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    DeviceSpec
		wantErr bool
	}{
		{"one device", DeviceSpec{N: 1}, false},
		{"many devices", DeviceSpec{N: 8}, false},
		{"id list", DeviceSpec{IDs: []int{0, 1}}, false},
		{"zero devices", DeviceSpec{N: 0}, true},
		{"negative devices", DeviceSpec{N: -1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
