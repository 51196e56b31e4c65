package model

import "strings"

// ScoringMethod selects the handicap correction formula applied to every
// entry of a fleet in a given race.
type ScoringMethod uint8

// Closed set of supported scoring methods.
const (
	OneDesign ScoringMethod = iota
	PHRFTimeOnTime
	PHRFTimeOnDistance
	ORREzGPH
	ORREzPC
	ORRFullPC
	Portsmouth
)

// methodLabels are the wire/storage labels for each method.
var methodLabels = map[ScoringMethod]string{
	OneDesign:          "OneDesign",
	PHRFTimeOnTime:     "PHRF_TOT",
	PHRFTimeOnDistance: "PHRF_TOD",
	ORREzGPH:           "ORR_EZ_GPH",
	ORREzPC:            "ORR_EZ_PC",
	ORRFullPC:          "ORR_Full_PC",
	Portsmouth:         "Portsmouth",
}

// String returns the storage label for the method.
func (m ScoringMethod) String() string {
	if label, ok := methodLabels[m]; ok {
		return label
	}
	return "OneDesign"
}

// ParseScoringMethod maps a storage label to a ScoringMethod.
// Unknown labels report ok=false; callers fall back to OneDesign
// behavior (corrected == elapsed) rather than failing the computation.
func ParseScoringMethod(s string) (ScoringMethod, bool) {
	for m, label := range methodLabels {
		if strings.EqualFold(strings.TrimSpace(s), label) {
			return m, true
		}
	}
	return OneDesign, false
}
