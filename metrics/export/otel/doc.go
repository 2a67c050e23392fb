// Package otel bridges otpkit engine metrics onto OpenTelemetry observable
// instruments. Values are pulled from the engine snapshot on each collection
// cycle, so the engine's hot path never touches the otel SDK.
package otel
