package model

import "math"

// costScale converts fractional unit costs into the integer domain the
// solving backends require. Objective values returned by a backend are in
// scaled units and must be divided back; the round trip loses at most half a
// unit of scale per cost entry.
const costScale = 1000

// scaleCost converts a unit cost to its integer representation.
func scaleCost(unitCost float64) int {
	return int(math.Round(unitCost * costScale))
}

// unscaleCost converts a scaled integer objective back to currency units.
func unscaleCost(scaled int) float64 {
	return float64(scaled) / costScale
}
