package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Default PHRF time-on-time coefficients, used whenever the configuration
// omits them or fails to parse.
const (
	DefaultPHRFTotA = 650
	DefaultPHRFTotB = 550
)

// DNFScoringStartedPlusOne switches the penalty-point denominator from
// registered entries to entries that started the race.
const DNFScoringStartedPlusOne = "StartedPlusOne"

// Configuration keys recognised in the free-form scoring JSON.
const (
	keyPHRFTotA   = "PHRF_TOT_A"
	keyPHRFTotB   = "PHRF_TOT_B"
	keyDNFScoring = "DNFScoring"
)

// Params is the typed scoring configuration resolved once at the engine
// boundary from the free-form JSON carried on Fleet/Race/RaceFleet
// records. The core algorithms never see raw JSON.
type Params struct {
	PHRFTotA   float64
	PHRFTotB   float64
	DNFScoring string
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		PHRFTotA: DefaultPHRFTotA,
		PHRFTotB: DefaultPHRFTotB,
	}
}

// ResolveParams layers raw JSON configuration blobs, lowest precedence
// first, onto the defaults. Race-day operators submit partial or sloppy
// configuration, so parsing is lenient: a blob that fails to parse is
// skipped and reported in the returned slice for observability, never as
// a failure.
func ResolveParams(raws ...string) (Params, []error) {
	p := DefaultParams()
	var parseErrs []error
	for _, raw := range raws {
		if raw == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("scoring config ignored: %w", err))
			continue
		}
		if v, ok := numericValue(m[keyPHRFTotA]); ok && v != 0 {
			p.PHRFTotA = v
		}
		if v, ok := numericValue(m[keyPHRFTotB]); ok && v != 0 {
			p.PHRFTotB = v
		}
		if s, ok := m[keyDNFScoring].(string); ok && s != "" {
			p.DNFScoring = s
		}
	}
	return p, parseErrs
}

// numericValue coerces a JSON value to float64, accepting numbers and
// numeric strings.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
