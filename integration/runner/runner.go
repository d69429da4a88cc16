package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running cabin-escape API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 10 * time.Second},
		Timeout:           EscapeTimeout,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite. The save slot is cleared first, so
// every suite starts from the title screen.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	if _, err := ResetGame(ctx, r.Client, r.BaseURL); err != nil {
		result.Error = fmt.Errorf("failed to reset game before suite: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		name := step.Name
		if name == "" {
			name = step.Intent
		}
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), name)
		stepResult := r.executeStep(ctx, step)
		stepResult.TestName = suite.Name
		stepResult.StepName = name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// executeStep performs a single step and checks its expectations
func (r *Runner) executeStep(ctx context.Context, step TestStep) TestResult {
	start := time.Now()
	var result TestResult

	var (
		view *engine.View
		err  error
	)
	switch {
	case step.Intent == ResetGameStatePrompt:
		result.IsReset = true
		view, err = ResetGame(ctx, r.Client, r.BaseURL)
	case step.Intent == WaitForEscapePrompt:
		result.IsWait = true
		view, err = PollForScene(ctx, r.Client, r.BaseURL, state.SceneEscaped, r.Timeout)
	case len(step.Action) > 0:
		view, err = PostAction(ctx, r.Client, r.BaseURL, step.Action)
	default:
		var in engine.Intent
		in, err = engine.ParseIntent(step.Intent)
		if err != nil {
			result.Error = fmt.Errorf("invalid intent in case file: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		view, err = PostAction(ctx, r.Client, r.BaseURL, in)
	}

	if err := checkStatus(step.Expectations.Status, err); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if view != nil {
		if err := checkExpectations(step.Expectations, view); err != nil {
			result.Error = fmt.Errorf("expectation failed: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkStatus compares the request error with the expected HTTP status.
func checkStatus(want int, err error) error {
	if want == 0 {
		want = http.StatusOK
	}
	if err == nil {
		if want != http.StatusOK {
			return fmt.Errorf("expected status %d, got 200", want)
		}
		return nil
	}

	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		if actionErr.Status == want {
			return nil
		}
		return fmt.Errorf("expected status %d, got %d: %s", want, actionErr.Status, actionErr.Body)
	}
	return err
}

// checkExpectations validates the test expectations against the returned view
func checkExpectations(exp Expectations, v *engine.View) error {
	gs := v.State

	if exp.Scene != nil && string(gs.Scene) != *exp.Scene {
		return fmt.Errorf("expected scene %s, got %s", *exp.Scene, gs.Scene)
	}

	if exp.LastRoom != nil && string(gs.LastRoom) != *exp.LastRoom {
		return fmt.Errorf("expected last_room %s, got %s", *exp.LastRoom, gs.LastRoom)
	}

	// Full inventory check (order independent)
	if exp.Inventory != nil {
		expected := make(map[string]bool)
		for _, item := range *exp.Inventory {
			expected[item] = true
		}

		actual := make(map[string]bool)
		for _, item := range gs.Inventory {
			actual[string(item)] = true
		}

		for expectedItem := range expected {
			if !actual[expectedItem] {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", expectedItem, gs.Inventory)
			}
		}
		for actualItem := range actual {
			if !expected[actualItem] {
				return fmt.Errorf("inventory contains unexpected item '%s'. Expected inventory: %v, Actual: %v", actualItem, *exp.Inventory, gs.Inventory)
			}
		}
	}

	if exp.Equipped != nil && string(gs.Equipped) != *exp.Equipped {
		return fmt.Errorf("expected equipped %q, got %q", *exp.Equipped, gs.Equipped)
	}

	for name, want := range exp.Flags {
		if got := gs.Flags.Has(state.Flag(name)); got != want {
			return fmt.Errorf("expected flag %s to be %t, got %t", name, want, got)
		}
	}

	if exp.EscapePending != nil && v.EscapePending != *exp.EscapePending {
		return fmt.Errorf("expected escape_pending %t, got %t", *exp.EscapePending, v.EscapePending)
	}

	if exp.Applied != nil || exp.Granted != nil {
		if v.Outcome == nil {
			return fmt.Errorf("expected a rule outcome, but the step returned none")
		}
		if exp.Applied != nil && v.Outcome.Applied != *exp.Applied {
			return fmt.Errorf("expected applied %t for rule %s, got %t", *exp.Applied, v.Outcome.Rule, v.Outcome.Applied)
		}
		if exp.Granted != nil && string(v.Outcome.Granted) != *exp.Granted {
			return fmt.Errorf("expected granted %q, got %q", *exp.Granted, v.Outcome.Granted)
		}
	}

	if exp.HintContains != "" && !strings.Contains(strings.ToLower(v.Hint), strings.ToLower(exp.HintContains)) {
		return fmt.Errorf("expected hint to contain '%s', got '%s'", exp.HintContains, v.Hint)
	}

	if exp.ExitLeft != nil && string(v.Exits.Left) != *exp.ExitLeft {
		return fmt.Errorf("expected left exit %q, got %q", *exp.ExitLeft, v.Exits.Left)
	}
	if exp.ExitRight != nil && string(v.Exits.Right) != *exp.ExitRight {
		return fmt.Errorf("expected right exit %q, got %q", *exp.ExitRight, v.Exits.Right)
	}

	return nil
}
