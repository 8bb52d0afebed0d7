// Package clock issues clock-advance and clock-warp operations against
// the active validator.
//
// The clock only moves forward here. A warp target behind the current
// position is rejected cleanly: intervening account mutations cannot be
// un-applied, so rewinding is only reachable through a snapshot restore,
// which rebuilds the process instead of mutating it in place.
//
// Both operations are synchronous round-trips. A timeout leaves the clock
// position unknown, which the coordinator escalates to an errored
// lifecycle state.
package clock
