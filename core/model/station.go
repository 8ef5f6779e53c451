package model

// Sign distinguishes the two chronic station regimes: deficit stations need
// stock injected, surplus stations need stock ejected.
type Sign int

const (
	SignDeficit Sign = iota
	SignSurplus
)

// Signs lists both regimes in evaluation order.
var Signs = []Sign{SignDeficit, SignSurplus}

func (s Sign) String() string {
	if s == SignDeficit {
		return "deficit"
	}
	return "surplus"
}

// ParseSign is the inverse of String.
func ParseSign(v string) (Sign, bool) {
	switch v {
	case "deficit":
		return SignDeficit, true
	case "surplus":
		return SignSurplus, true
	}
	return 0, false
}

// Delta returns the signed stock adjustment one regulation event applies
// under this regime, given the configured magnitude.
func (s Sign) Delta(magnitude float64) float64 {
	if s == SignDeficit {
		return magnitude
	}
	return -magnitude
}

// Station carries everything the simulator needs for one station: the stock
// state at the start of the remaining horizon, the reconstructed demand and
// the historical reference it is stabilized against.
type Station struct {
	ID       string
	Capacity float64
	Start    float64

	// Demand, HistStock and HistReg are indexed [day][step] over the
	// remaining horizon.
	Demand    [][]float64
	HistStock [][]float64
	HistReg   [][]bool

	// PastServiceSums holds, per service hour, the stock already observed on
	// elapsed week days. Zero-valued when planning starts on the first day.
	PastServiceSums []float64
}
