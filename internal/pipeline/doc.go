// Package pipeline runs ordered lists of algorithm steps.
//
// A run starts with the normalized source stored under "original". Each
// enabled step, in list order, reads its input from an earlier result,
// applies its algorithm, optionally blends the output over another earlier
// result and stores what it produced under its own id. Results are never
// overwritten, so any number of later steps may reuse one.
//
// There is no reordering: a reference to a later, disabled or unknown step
// fails the whole run with a *StepError naming the referring step. Plan
// reports the same problems up front without running anything.
package pipeline
