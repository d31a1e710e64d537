package interfaces

// Compile-time interface implementation checks.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/deardayone/internal/audit"
	"github.com/mrlokans/deardayone/internal/convert"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/exporter"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/runner"
	"github.com/mrlokans/deardayone/internal/setup"
	"github.com/mrlokans/deardayone/internal/testutil"
)

// =============================================================================
// Export Pipeline
// =============================================================================

var _ exporter.StateStore = (*exportstate.Store)(nil)
var _ exporter.Converter = (*convert.Pipeline)(nil)
var _ exporter.Publisher = (*dayone.Publisher)(nil)
var _ exporter.HistoryRecorder = (*audit.Service)(nil)

// =============================================================================
// Setup
// =============================================================================

var _ setup.StateStore = (*exportstate.Store)(nil)
var _ setup.JournalSource = (*dayone.JournalReader)(nil)

// =============================================================================
// Process Execution
// =============================================================================

var _ runner.Runner = (*runner.Exec)(nil)
var _ runner.Runner = (*testutil.FakeRunner)(nil)
