// Package fsm holds the in-memory model of a declarative finite-state-machine
// definition: the states, transitions, defaults, and invariants a workflow
// declares about itself.
//
// The model is pure data. Constructing a Definition never fails and performs
// no validation; referential integrity is the job of internal/validate, and
// document-shape checking the job of internal/schema. A Definition is owned by
// its caller, never mutated by any package in this module, and safe for
// concurrent reads once built.
package fsm
