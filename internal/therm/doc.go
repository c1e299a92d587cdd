// Package therm orchestrates the transient thermal simulation of a cocoa
// fermentation vessel.
//
// [Stepper] executes the strictly ordered per-step protocol: advance the
// clock, fire due rotations, recompute the heat generation and evaporative
// cooling fields over the cacao region, delegate the implicit diffusion
// solve, check the safety thresholds and commit the new temperature field.
// [Driver] wraps it in the outer time loop with statistics accumulation,
// periodic field snapshots and the safety-abort logic.
//
// State transitions (rotations, microbial death, emergency stop, solver
// failure) are surfaced as [Event] values through the [Observer] interface;
// the core never prints.
//
// # Terminal outcomes
//
// A run ends in one of three ways: the horizon is reached (success), the
// peak temperature crosses the emergency threshold ([ErrEmergencyStop],
// recorded in the result, not returned as a driver error), or the linear
// solve fails (returned as an error with partial series preserved). No step
// is ever retried.
package therm
