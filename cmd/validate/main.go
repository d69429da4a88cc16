package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jwebster45206/cabin-escape/integration/runner"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
)

// Checks save files and integration case files before they are loaded.
//
//	go run ./cmd/validate data/save.json integration/cases/*.json
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json|case.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &Validator{out: os.Stdout}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type Validator struct {
	out      io.Writer
	errors   []string
	warnings []string
}

// saveFile mirrors state.GameState with raw values so unknown ids are
// reported instead of silently dropped.
type saveFile struct {
	Scene     string          `json:"scene"`
	Inventory []string        `json:"inventory"`
	Equipped  string          `json:"equipped,omitempty"`
	Flags     map[string]bool `json:"flags"`
	LastRoom  string          `json:"last_room,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

func (v *Validator) validateFile(filename string) error {
	fmt.Fprintf(v.out, "Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidFilename(nameWithoutExt) {
		return fmt.Errorf("filename '%s' must be lowercase snake_case (e.g., critical_path.json, not critical-path.json or CriticalPath.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	if isCaseFile(data) {
		var suite runner.TestSuite
		if err := strictDecode(data, &suite); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
		v.validateSuite(&suite)
	} else {
		var save saveFile
		if err := strictDecode(data, &save); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
		v.validateSave(&save)
	}

	for _, w := range v.warnings {
		fmt.Fprintf(v.out, "  warning: %s\n", w)
	}
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func isCaseFile(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, steps := probe["steps"]
	_, cases := probe["cases"]
	return steps || cases
}

func strictDecode(data []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func (v *Validator) validateSave(s *saveFile) {
	scene := state.Scene(s.Scene)
	if s.Scene == "" {
		v.addError("scene is missing")
	} else if !scene.Valid() {
		v.addError(fmt.Sprintf("unknown scene '%s'", s.Scene))
	}

	if s.LastRoom != "" && !state.Scene(s.LastRoom).Playable() {
		v.addError(fmt.Sprintf("last_room '%s' is not a playable room", s.LastRoom))
	}

	seen := make(map[string]bool)
	for _, item := range s.Inventory {
		if !state.Item(item).Valid() {
			v.addError(fmt.Sprintf("unknown item '%s' in inventory", item))
		}
		if seen[item] {
			v.addError(fmt.Sprintf("item '%s' appears more than once", item))
		}
		seen[item] = true
	}

	if s.Equipped != "" && !seen[s.Equipped] {
		v.addError(fmt.Sprintf("equipped item '%s' is not in the inventory", s.Equipped))
	}

	var flags state.FlagSet
	for name, set := range s.Flags {
		if !isKnownFlag(name) {
			v.addError(fmt.Sprintf("unknown flag '%s'", name))
			continue
		}
		if set {
			flags = flags.With(state.Flag(name))
		}
	}

	if scene == state.SceneEscaped && !flags.Has(state.FlagBoardsCleared) {
		v.addError("scene is escaped but boardsCleared is not set")
	}

	// Items normally come from rules; a held item whose rule never fired
	// was added by hand.
	for _, r := range state.Rules {
		if r.Grant != state.ItemNone && seen[string(r.Grant)] && !flags.Has(r.Done) {
			v.addWarning(fmt.Sprintf("holds '%s' but %s is not set", r.Grant, r.Done))
		}
	}
}

func (v *Validator) validateSuite(s *runner.TestSuite) {
	if s.Name == "" {
		v.addError("suite has no name")
	}
	if s.IsSequence() && len(s.Steps) > 0 {
		v.addError("suite has both cases and steps")
	}
	for _, c := range s.Cases {
		if !strings.HasSuffix(c, ".json") {
			v.addError(fmt.Sprintf("case reference '%s' must be a .json file", c))
		}
	}

	for i, step := range s.Steps {
		where := fmt.Sprintf("step %d", i)
		if step.Name != "" {
			where = fmt.Sprintf("step %d (%s)", i, step.Name)
		}
		v.validateStep(&step, where)
	}
}

func (v *Validator) validateStep(step *runner.TestStep, where string) {
	switch {
	case step.Intent != "" && len(step.Action) > 0:
		v.addError(fmt.Sprintf("%s sets both intent and action", where))
	case step.Intent == runner.ResetGameStatePrompt, step.Intent == runner.WaitForEscapePrompt:
	case len(step.Action) > 0:
		if !json.Valid(step.Action) {
			v.addError(fmt.Sprintf("%s has an invalid action payload", where))
		}
	case step.Intent == "":
		v.addError(fmt.Sprintf("%s has neither intent nor action", where))
	default:
		if _, err := engine.ParseIntent(step.Intent); err != nil {
			v.addError(fmt.Sprintf("%s: %v", where, err))
		}
	}

	exp := step.Expectations
	for _, s := range []*string{exp.Scene, exp.ExitLeft, exp.ExitRight} {
		if s != nil && *s != "" && !state.Scene(*s).Valid() {
			v.addError(fmt.Sprintf("%s expects unknown scene '%s'", where, *s))
		}
	}
	if exp.LastRoom != nil && *exp.LastRoom != "" && !state.Scene(*exp.LastRoom).Playable() {
		v.addError(fmt.Sprintf("%s expects last_room '%s', which is not a playable room", where, *exp.LastRoom))
	}
	if exp.Inventory != nil {
		for _, item := range *exp.Inventory {
			if !state.Item(item).Valid() {
				v.addError(fmt.Sprintf("%s expects unknown item '%s'", where, item))
			}
		}
	}
	for _, s := range []*string{exp.Equipped, exp.Granted} {
		if s != nil && *s != "" && !state.Item(*s).Valid() {
			v.addError(fmt.Sprintf("%s expects unknown item '%s'", where, *s))
		}
	}
	for name := range exp.Flags {
		if !isKnownFlag(name) {
			v.addError(fmt.Sprintf("%s expects unknown flag '%s'", where, name))
		}
	}
	if exp.Status != 0 && (exp.Status < 100 || exp.Status > 599) {
		v.addError(fmt.Sprintf("%s expects invalid HTTP status %d", where, exp.Status))
	}
}

func isKnownFlag(name string) bool {
	for _, f := range state.Flags {
		if string(f) == name {
			return true
		}
	}
	return false
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *Validator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidFilename(name string) bool {
	return validFilenameRegex.MatchString(name)
}
