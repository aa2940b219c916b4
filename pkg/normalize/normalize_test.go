package normalize

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/menta2k/chart-watch/pkg/types"
)

const validBody = `{"decision":"Long","confidence":77,"reason":"breakout","scenarios":[{"side":"Long","entry":"100","stop":"98","targets":["105","110","115","120"]}],"levels":{"support":["95"],"resistance":["105","110","120"]}}`

func TestNormalizeFencedEqualsBare(t *testing.T) {
	bare := Normalize(validBody)

	wrapped := []string{
		"```json\n" + validBody + "\n```",
		"```JSON\n" + validBody + "\n```",
		"```\n" + validBody + "\n```",
		"  \n```json\n" + validBody + "\n```\n  ",
	}

	for _, raw := range wrapped {
		got := Normalize(raw)
		if !reflect.DeepEqual(got, bare) {
			t.Errorf("fenced input %q: got %+v, want %+v", raw, got, bare)
		}
	}
}

func TestNormalizeExample(t *testing.T) {
	got := Normalize("```json\n" + validBody + "\n```")

	if got.Decision != types.Long {
		t.Errorf("Expected decision Long, got %s", got.Decision)
	}
	if got.Confidence != 77 {
		t.Errorf("Expected confidence 77, got %d", got.Confidence)
	}
	if got.Reason != "breakout" {
		t.Errorf("Expected reason %q, got %q", "breakout", got.Reason)
	}
	if len(got.Scenarios) != 1 {
		t.Fatalf("Expected 1 scenario, got %d", len(got.Scenarios))
	}
	wantTargets := []string{"105", "110", "115"}
	if !reflect.DeepEqual(got.Scenarios[0].Targets, wantTargets) {
		t.Errorf("Expected targets %v, got %v", wantTargets, got.Scenarios[0].Targets)
	}
	wantResistance := []string{"105", "110"}
	if !reflect.DeepEqual(got.Levels.Resistance, wantResistance) {
		t.Errorf("Expected resistance %v, got %v", wantResistance, got.Levels.Resistance)
	}
	if !reflect.DeepEqual(got.Levels.Support, []string{"95"}) {
		t.Errorf("Expected support [95], got %v", got.Levels.Support)
	}
}

func TestNormalizeFallback(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "I cannot analyze this chart right now."},
		{"truncated json", `{"decision":"Long","conf`},
		{"array not object", `["Long"]`},
		{"null literal", "null"},
		{"bare number", "42"},
		{"bare string", `"Long"`},
		{"fenced null", "```json\nnull\n```"},
		{"fenced prose", "```\nnot json at all\n```"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			if got.Decision != types.Wait {
				t.Errorf("Expected decision Wait, got %s", got.Decision)
			}
			if got.Confidence != 50 {
				t.Errorf("Expected confidence 50, got %d", got.Confidence)
			}
			if len(got.Scenarios) != 0 {
				t.Errorf("Expected no scenarios, got %d", len(got.Scenarios))
			}
			if len(got.Levels.Support) != 0 || len(got.Levels.Resistance) != 0 {
				t.Errorf("Expected empty levels, got %+v", got.Levels)
			}
		})
	}
}

func TestNormalizeFieldDefaults(t *testing.T) {
	cases := []struct {
		name           string
		raw            string
		wantDecision   types.Decision
		wantConfidence int
	}{
		{"missing decision", `{"confidence":30}`, types.Wait, 30},
		{"unknown decision", `{"decision":"Hold","confidence":30}`, types.Wait, 30},
		{"lowercase decision", `{"decision":"short"}`, types.Short, 0},
		{"missing confidence", `{"decision":"Long"}`, types.Long, 0},
		{"string confidence", `{"decision":"Long","confidence":"88"}`, types.Long, 88},
		{"non-numeric confidence", `{"decision":"Long","confidence":"high"}`, types.Long, 0},
		{"float confidence", `{"decision":"Long","confidence":66.9}`, types.Long, 66},
		{"confidence over range", `{"decision":"Long","confidence":250}`, types.Long, 100},
		{"negative confidence", `{"decision":"Long","confidence":-3}`, types.Long, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			if got.Decision != tc.wantDecision {
				t.Errorf("Expected decision %s, got %s", tc.wantDecision, got.Decision)
			}
			if got.Confidence != tc.wantConfidence {
				t.Errorf("Expected confidence %d, got %d", tc.wantConfidence, got.Confidence)
			}
		})
	}
}

func TestNormalizeTruncation(t *testing.T) {
	longReason := strings.Repeat("r", 200)
	raw := `{"decision":"Short","confidence":60,"reason":"` + longReason + `",` +
		`"scenarios":[` +
		`{"side":"Short","entry":"1","stop":"2","targets":["a","b","c","d"],"conditions":"` + strings.Repeat("c", 100) + `","invalidate":"` + strings.Repeat("i", 100) + `"},` +
		`{"side":"Long","entry":"3","stop":"4"},` +
		`{"side":"Long","entry":"5","stop":"6"}],` +
		`"levels":{"support":["1","2","3"],"resistance":["4","5","6"]}}`

	got := Normalize(raw)

	if len(got.Reason) != 80 {
		t.Errorf("Expected reason truncated to 80 chars, got %d", len(got.Reason))
	}
	if len(got.Scenarios) != 2 {
		t.Errorf("Expected scenarios truncated to 2, got %d", len(got.Scenarios))
	}
	if len(got.Scenarios[0].Targets) != 3 {
		t.Errorf("Expected targets truncated to 3, got %d", len(got.Scenarios[0].Targets))
	}
	if len(got.Scenarios[0].Conditions) != 60 {
		t.Errorf("Expected conditions truncated to 60 chars, got %d", len(got.Scenarios[0].Conditions))
	}
	if len(got.Scenarios[0].Invalidate) != 40 {
		t.Errorf("Expected invalidate truncated to 40 chars, got %d", len(got.Scenarios[0].Invalidate))
	}
	if len(got.Levels.Support) != 2 || len(got.Levels.Resistance) != 2 {
		t.Errorf("Expected levels truncated to 2 each, got %+v", got.Levels)
	}
}

// Normalizing a payload's own serialized form must reproduce the payload.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		validBody,
		`{"decision":"Hold","confidence":"high","reason":"` + strings.Repeat("x", 120) + `"}`,
		"garbage that falls back",
	}

	for _, raw := range inputs {
		first := Normalize(raw)
		data, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		second := Normalize(string(data))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("not idempotent for %q:\nfirst  %+v\nsecond %+v", raw, first, second)
		}
	}
}

func TestFallbackReasonTruncated(t *testing.T) {
	got := Fallback(strings.Repeat("e", 300))
	if len(got.Reason) != 80 {
		t.Errorf("Expected fallback reason truncated to 80 chars, got %d", len(got.Reason))
	}
}
