package types

// Region is the rectangular screen area under continuous monitoring,
// in logical (UI) pixel coordinates. A region is replaced wholesale by a
// new selection, never mutated in place.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the region has a positive extent.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Decision is the trade direction recommended by the model.
type Decision string

const (
	Long  Decision = "Long"
	Short Decision = "Short"
	Wait  Decision = "Wait"
)

// Scenario is one candidate trade setup within a payload.
type Scenario struct {
	Side       Decision `json:"side"`
	Entry      string   `json:"entry"`
	Stop       string   `json:"stop"`
	Targets    []string `json:"targets"`
	Conditions string   `json:"conditions"`
	Invalidate string   `json:"invalidate"`
}

// Levels holds nearby support and resistance price levels as display strings.
type Levels struct {
	Support    []string `json:"support"`
	Resistance []string `json:"resistance"`
}

// AnalysisPayload is the normalized trading recommendation produced from a
// raw model response. It is consumed once per cycle and not persisted.
type AnalysisPayload struct {
	Decision   Decision   `json:"decision"`
	Confidence int        `json:"confidence"`
	Reason     string     `json:"reason"`
	Scenarios  []Scenario `json:"scenarios"`
	Levels     Levels     `json:"levels"`
}

// ProviderInfo is static provider metadata, used only for display.
type ProviderInfo struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	SupportsVision bool   `json:"supports_vision"`
}
