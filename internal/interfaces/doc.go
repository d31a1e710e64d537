// Package interfaces documents the extension points of the exporter.
//
// # Interface Categories
//
// ## Export Pipeline
//
//   - exporter.StateStore: persisted export configuration (internal/exportstate)
//   - exporter.Converter: stroke file to PNG (internal/convert)
//   - exporter.Publisher: journal entry creation (internal/dayone)
//   - exporter.HistoryRecorder: export attempt log (internal/audit)
//
// ## Setup
//
//   - setup.Prompter: line input (internal/cli, liner-backed)
//   - setup.JournalSource: destination journal names (internal/dayone)
//   - setup.StateStore: persisted export configuration (internal/exportstate)
//
// ## Process Execution
//
//   - runner.Runner: external program invocation (internal/runner)
//
// # Adding a New Destination
//
// To publish pages somewhere other than Day One:
//
//  1. Implement exporter.Publisher in a new package:
//
//     type NotesPublisher struct {
//         runner runner.Runner
//     }
//
//     func (p *NotesPublisher) CreateEntry(ctx context.Context, entry dayone.Entry) (string, error)
//
//  2. Add a compile-time check to checks.go
//
//  3. Pass it as exporter.Config.Publisher in internal/cli/app.go
//
// # Compile-Time Interface Checks
//
// Implementations are checked against their interfaces at compile time:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
