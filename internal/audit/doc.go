// Package audit carries structured events for the verification workflow to a
// caller-supplied sink. Emission is asynchronous through a buffered
// dispatcher so a slow sink cannot stall issue/verify/consume calls; the
// dispatcher drains its buffer on Close.
package audit
