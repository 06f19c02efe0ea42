package tui

import (
	"lmxcli/internal/service"
)

// Messages for the TUI

// testDoneMsg is sent when the dry-run test flow completes
type testDoneMsg struct {
	outcome *service.TestOutcome
	err     error
}

// submitDoneMsg is sent when the submission flow completes
type submitDoneMsg struct {
	err error
}
