// Package normalize turns raw model output into a well-formed analysis
// payload. Vision models wrap JSON in markdown fences, prepend prose, or
// return malformed documents; this package absorbs all of that and always
// produces a payload the presentation layer can render.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/menta2k/chart-watch/pkg/types"
)

const (
	maxReasonLen     = 80
	maxConditionsLen = 60
	maxInvalidateLen = 40
	maxScenarios     = 2
	maxTargets       = 3
	maxLevels        = 2

	fallbackConfidence = 50
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n(.*?)```")

// rawPayload mirrors the payload schema with loose field types so that a
// model returning confidence as "77" or 77.0 still parses.
type rawPayload struct {
	Decision   string        `json:"decision"`
	Confidence any           `json:"confidence"`
	Reason     string        `json:"reason"`
	Scenarios  []rawScenario `json:"scenarios"`
	Levels     rawLevels     `json:"levels"`
}

type rawScenario struct {
	Side       string   `json:"side"`
	Entry      string   `json:"entry"`
	Stop       string   `json:"stop"`
	Targets    []string `json:"targets"`
	Conditions string   `json:"conditions"`
	Invalidate string   `json:"invalidate"`
}

type rawLevels struct {
	Support    []string `json:"support"`
	Resistance []string `json:"resistance"`
}

// Normalize extracts a structured payload from raw model text. It never
// fails: a response that cannot be parsed yields the fallback payload
// (decision Wait, confidence 50) with the parse error as the reason.
func Normalize(raw string) types.AnalysisPayload {
	text := stripFences(raw)

	// A bare scalar or null decodes into the struct without error, so
	// require an actual top-level object.
	if !strings.HasPrefix(text, "{") {
		return Fallback("parsing error: no JSON object in response")
	}

	var parsed rawPayload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return Fallback(fmt.Sprintf("parsing error: %v", err))
	}

	return clamp(parsed)
}

// Fallback returns the safe payload used when a response cannot be parsed.
func Fallback(reason string) types.AnalysisPayload {
	return types.AnalysisPayload{
		Decision:   types.Wait,
		Confidence: fallbackConfidence,
		Reason:     truncate(reason, maxReasonLen),
		Scenarios:  []types.Scenario{},
		Levels:     types.Levels{Support: []string{}, Resistance: []string{}},
	}
}

// stripFences removes markdown code fences around the response body. A
// tagged ```json block yields its inner content; bare ``` markers are
// trimmed off.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedJSON.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

// clamp applies field-level defaults and truncation so the payload always
// satisfies the presentation contract, whatever the model returned.
func clamp(in rawPayload) types.AnalysisPayload {
	out := types.AnalysisPayload{
		Decision:   parseDecision(in.Decision, types.Wait),
		Confidence: parseConfidence(in.Confidence),
		Reason:     truncate(in.Reason, maxReasonLen),
		Scenarios:  []types.Scenario{},
		Levels: types.Levels{
			Support:    truncateList(in.Levels.Support, maxLevels),
			Resistance: truncateList(in.Levels.Resistance, maxLevels),
		},
	}

	scenarios := in.Scenarios
	if len(scenarios) > maxScenarios {
		scenarios = scenarios[:maxScenarios]
	}
	for _, s := range scenarios {
		out.Scenarios = append(out.Scenarios, types.Scenario{
			Side:       parseDecision(s.Side, types.Wait),
			Entry:      s.Entry,
			Stop:       s.Stop,
			Targets:    truncateList(s.Targets, maxTargets),
			Conditions: truncate(s.Conditions, maxConditionsLen),
			Invalidate: truncate(s.Invalidate, maxInvalidateLen),
		})
	}

	return out
}

func parseDecision(s string, def types.Decision) types.Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return types.Long
	case "short":
		return types.Short
	case "wait":
		return types.Wait
	}
	return def
}

// parseConfidence coerces the loose confidence value to an integer in
// [0,100]. Absent or non-numeric values become 0.
func parseConfidence(raw any) int {
	var v float64
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		v = f
	case float64:
		v = n
	default:
		return 0
	}
	c := int(v)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func truncateList(list []string, max int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > max {
		return list[:max]
	}
	return list
}
