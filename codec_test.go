package persist

import (
	"reflect"
	"testing"
)

func TestCodecForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"settings.json", "json"},
		{"settings.yaml", "yaml"},
		{"settings.YML", "yaml"},
		{"settings.secure", "json"},
		{"settings", "json"},
		{"dir.yaml/settings.json", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := codecForPath(tt.path).Name(); got != tt.want {
				t.Errorf("codecForPath(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	wire := map[string]any{
		"last_saved": "2026-04-01T00:00:00Z",
		"version":    "1.2.0",
		"Settings": map[string]any{
			"volume": 0.8,
			"name":   "player",
			"flags":  []any{true, false},
			"nested": map[string]any{"depth": 2.0},
		},
	}
	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Encode(wire)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			// Normalize both sides through JSON so YAML's int/float choices
			// do not fail the comparison.
			a := NewValueStore()
			b := NewValueStore()
			a.Set("w", wire)
			b.Set("w", got)
			av, _ := Get[map[string]any](a, "w")
			bv, _ := Get[map[string]any](b, "w")
			if !reflect.DeepEqual(av, bv) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", bv, av)
			}
		})
	}
}

func TestCodecDecodeGarbage(t *testing.T) {
	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			if _, err := c.Decode([]byte("{]][ not a document")); err == nil {
				t.Error("Decode of garbage succeeded")
			}
		})
	}
}
