// Package forecast implements the interchangeable occupancy forecast
// strategies: a recency-weighted heuristic over the interval log and a
// bagged decision-tree classifier trained on telemetry readings.
package forecast
