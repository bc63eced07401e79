// Package optimizer is the rule engine that turns a normalized bulk report
// into bid, pause and placement recommendations.
//
// Everything here is pure: no I/O, no logging, no clocks. Callers parse the
// report (see package datanorm), call Run, and hand the Result to storage
// and export collaborators.
//
// Pipeline per run:
//
//	rows ──► ValidateRow ──► Classify ──► RecommendBid ──► Summarize
//	     └─► AggregatePlacements ──► RecommendPlacementAdjustment
//
// Classify checks pause, then good, then bad, and returns a single tagged
// Class. Strategy defaults live in a read-only table and are merged with
// explicit overrides by ResolveProfile.
package optimizer
