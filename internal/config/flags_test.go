package config

import (
	"bytes"
	"testing"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Flags
		wantErr bool
	}{
		{
			"config path only",
			[]string{"run.yaml"},
			Flags{ConfigPath: "run.yaml"},
			false,
		},
		{
			"all switches",
			[]string{"-test", "-no-logging", "-no-checkpointing", "-allow-dirty-repo", "run.yaml"},
			Flags{ConfigPath: "run.yaml", Test: true, NoLogging: true, NoCheckpointing: true, AllowDirtyRepo: true},
			false,
		},
		{"no positional", []string{"-test"}, Flags{}, true},
		{"two positionals", []string{"a.yaml", "b.yaml"}, Flags{}, true},
		{"unknown flag", []string{"-bogus", "run.yaml"}, Flags{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := ParseFlags(tc.args, &out)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
