// Package logging provides structured, subsystem-tagged logging for vmflow.
//
// It is a thin layer over the standard library's slog package. Every entry
// carries a subsystem identifier (Orchestrator, Gateway, Store, ...) so that
// output from a single server process can be filtered per component.
//
// Initialization happens once at startup:
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//
// after which the package-level helpers are safe for concurrent use:
//
//	logging.Info("Orchestrator", "migration plan %s accepted", path)
//	logging.Error("Store", err, "failed to persist workflow state")
//
// When the output writer is a terminal, entries are rendered with the tint
// handler (colorized, compact timestamps); otherwise the plain slog text
// handler is used so log shippers see stable key=value output.
package logging
