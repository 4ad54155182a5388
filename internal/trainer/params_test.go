package trainer

import "testing"

func TestMergeParams(t *testing.T) {
	tests := []struct {
		name     string
		shared   map[string]any
		specific map[string]any
		want     map[string]any
	}{
		{
			"specific wins on collision",
			map[string]any{"horizon": 50, "lr": 0.01},
			map[string]any{"lr": 0.0001},
			map[string]any{"horizon": 50, "lr": 0.0001},
		},
		{
			"nil shared",
			nil,
			map[string]any{"workers": 8},
			map[string]any{"workers": 8},
		},
		{
			"nil specific",
			map[string]any{"horizon": 50},
			nil,
			map[string]any{"horizon": 50},
		},
		{"both nil", nil, nil, map[string]any{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeParams(tc.shared, tc.specific)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d keys, got %d", len(tc.want), len(got))
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("key %q: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestMergeParamsDoesNotMutateInputs(t *testing.T) {
	shared := map[string]any{"lr": 0.01}
	specific := map[string]any{"lr": 0.0001}
	_ = MergeParams(shared, specific)
	if shared["lr"] != 0.01 {
		t.Error("shared map was mutated")
	}
}
