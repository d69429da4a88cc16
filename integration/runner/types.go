package runner

import (
	"encoding/json"
	"time"
)

// Special step values that trigger non-intent actions
const (
	ResetGameStatePrompt = "RESET_GAMESTATE"
	WaitForEscapePrompt  = "WAIT_ESCAPE"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single player intent and its expected outcomes.
// Intent uses the short text form ("left", "equip:key", "use").
// Action is posted verbatim instead, for checking rejected payloads.
// Use intent: "RESET_GAMESTATE" to clear the save slot, or "WAIT_ESCAPE"
// to wait for a pending escape to land.
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Intent       string          `json:"intent,omitempty"`
	Action       json.RawMessage `json:"action,omitempty"`
	Expectations Expectations    `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// GameState properties - aligned with pkg/state/gamestate.go
	Scene     *string         `json:"scene,omitempty"`
	LastRoom  *string         `json:"last_room,omitempty"`
	Inventory *[]string       `json:"inventory,omitempty"` // Full inventory contents (order independent)
	Equipped  *string         `json:"equipped,omitempty"`
	Flags     map[string]bool `json:"flags,omitempty"`

	// View properties
	EscapePending *bool   `json:"escape_pending,omitempty"`
	Applied       *bool   `json:"applied,omitempty"`
	Granted       *string `json:"granted,omitempty"`
	HintContains  string  `json:"hint_contains,omitempty"`
	ExitLeft      *string `json:"exit_left,omitempty"`
	ExitRight     *string `json:"exit_right,omitempty"`

	// Status is the expected HTTP status of the action; defaults to 200.
	Status int `json:"status,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	IsReset  bool // True if this was a RESET_GAMESTATE step (should not count toward pass/fail metrics)
	IsWait   bool // True if this was a WAIT_ESCAPE step
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
}
