// Package observability builds the process logger.
//
// The logger is zap based and adds:
//   - redaction of sensitive field keys and bearer credentials
//   - per-message sampling so a hot path cannot flood the sinks
//   - optional rotating file output
//   - Security and Audit helpers with a fixed category field
package observability
