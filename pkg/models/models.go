package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Float is a float64 that survives JSON at the infinite sentinels.
// Finite values are plain numbers; infinities are "+Inf" / "-Inf".
type Float float64

// MarshalJSON writes numbers for finite values and strings for infinities
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return nil, fmt.Errorf("cannot encode NaN")
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts a number or a string such as "0.5", "Infinity", "+∞", "-Inf"
func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseFloat(s)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	*f = Float(v)
	return nil
}

// ParseFloat reads decimal text plus the infinity spellings used by clients
func ParseFloat(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "Infinity", "+Infinity", "Inf", "+Inf", "∞", "+∞":
		return math.Inf(1), nil
	case "-Infinity", "-Inf", "-∞":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// ChanceInput names a representation and its raw value
type ChanceInput struct {
	Kind  string `json:"kind"` // probability, odds, log_odds
	Value Float  `json:"value"`
}

// ChanceView is one representation of a chance as returned to clients
type ChanceView struct {
	Kind       string `json:"kind"`
	Value      Float  `json:"value"`
	Text       string `json:"text"`
	Impossible bool   `json:"impossible"`
	Certain    bool   `json:"certain"`
}

// ConversionResponse is a chance in every representation plus its complement
type ConversionResponse struct {
	Input       ChanceView `json:"input"`
	Probability ChanceView `json:"probability"`
	Odds        ChanceView `json:"odds"`
	LogOdds     ChanceView `json:"log_odds"`
	Complement  ChanceView `json:"complement"`
}

// CompareRequest asks how two chances are ordered
type CompareRequest struct {
	Left  ChanceInput `json:"left"`
	Right ChanceInput `json:"right"`
}

// CompareResponse reports the ordering of left relative to right
type CompareResponse struct {
	Left     ChanceView `json:"left"`
	Right    ChanceView `json:"right"`
	Result   int        `json:"result"`   // -1, 0, 1
	Relation string     `json:"relation"` // less, equal, greater
	Equal    bool       `json:"equal"`
}

// SimulationRequest runs repeated Bernoulli trials of one chance
type SimulationRequest struct {
	Chance ChanceInput `json:"chance"`
	Trials int         `json:"trials"`
	Seed   *uint64     `json:"seed,omitempty"` // replays the same outcomes when set
}

// SimulationResult summarises a simulation run
type SimulationResult struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Value           Float     `json:"value"`
	Text            string    `json:"text"`
	Trials          int       `json:"trials"`
	Matches         int       `json:"matches"`
	Ratio           float64   `json:"ratio"`
	Expected        float64   `json:"expected"`
	Deviation       float64   `json:"deviation"`
	BatchMean       float64   `json:"batch_mean"`
	BatchStdDev     float64   `json:"batch_std_dev"`
	Tolerance       float64   `json:"tolerance"`
	WithinTolerance bool      `json:"within_tolerance"`
	Seed            *uint64   `json:"seed,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
