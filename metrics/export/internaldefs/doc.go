// Package internaldefs holds the shared metric name table used by the
// prometheus and otel exporters, so the two surfaces cannot drift apart.
package internaldefs
