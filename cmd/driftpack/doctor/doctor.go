// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor implements "driftpack doctor", a preflight check
// that diagnoses the operator's local environment rather than a
// target host: whether the store toolchain binaries resolve, whether
// the configured directories exist and are writable, and whether the
// activation verb is reachable. It has no fix-it mode and makes no
// lasting changes (the writability probe file is removed again), since
// build-instruction and apply-instruction are the commands that
// actually change state.
package doctor

import "fmt"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
)

// Result is one check's outcome, with an optional hint for how to
// resolve a failure.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Pass reports a passing check.
func Pass(name, message string) Result {
	return Result{Name: name, Status: StatusPass, Message: message}
}

// Fail reports a failing check with no actionable hint.
func Fail(name, message string) Result {
	return Result{Name: name, Status: StatusFail, Message: message}
}

// FailWithHint reports a failing check along with a suggested fix,
// printed below the check in text output.
func FailWithHint(name, message, hint string) Result {
	return Result{Name: name, Status: StatusFail, Message: message, Hint: hint}
}

// Warn reports a check that is not fatal but worth the operator's
// attention.
func Warn(name, message string) Result {
	return Result{Name: name, Status: StatusWarn, Message: message}
}

// Skip reports a check that did not run, typically because an
// earlier check in the same section already failed.
func Skip(name, message string) Result {
	return Result{Name: name, Status: StatusSkip, Message: message}
}

// symbol returns the glyph printed to the left of a result in text
// output.
func (r Result) symbol() string {
	switch r.Status {
	case StatusPass:
		return "✓"
	case StatusFail:
		return "✗"
	case StatusWarn:
		return "!"
	default:
		return "-"
	}
}

func (r Result) String() string {
	if r.Message == "" {
		return fmt.Sprintf("%s %s", r.symbol(), r.Name)
	}
	return fmt.Sprintf("%s %s: %s", r.symbol(), r.Name, r.Message)
}

// AnyFailed reports whether results contains a StatusFail entry.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}
