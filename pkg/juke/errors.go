// Package juke aggregates the framebuffer, audio, input and refresh
// components into the single object a VMM integrator constructs once, the
// way api/pkg/desktop/desktop.go aggregates a session's streamers and
// input injector into one object.
package juke

import "github.com/pkg/errors"

// Severity classifies how a caller should react to an error. Per spec §7
// the driver has no fatal path: every classification calls for logging
// and/or degrading, never for aborting the data path.
type Severity int

const (
	// SeverityIgnored covers expected, silent conditions (consumer absent).
	SeverityIgnored Severity = iota
	// SeverityLogged covers transient failures worth a single log line.
	SeverityLogged
	// SeverityDegraded covers failures that put a channel into a fallback
	// mode (rate-throttle, no-op) until the next reconfiguration.
	SeverityDegraded
)

// degradedError marks an error that should downgrade a channel to its
// fallback mode rather than merely being logged.
type degradedError struct{ error }

// Degraded wraps err so Classify reports SeverityDegraded for it.
func Degraded(err error) error {
	if err == nil {
		return nil
	}
	return degradedError{err}
}

// Classify returns how the caller should react to err. A nil error is
// SeverityIgnored.
func Classify(err error) Severity {
	if err == nil {
		return SeverityIgnored
	}
	var d degradedError
	if errors.As(err, &d) {
		return SeverityDegraded
	}
	return SeverityLogged
}
