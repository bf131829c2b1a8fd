package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
)

// StepStatus represents the state of a progress step.
type StepStatus int

const (
	// StepPending indicates a step has not yet started.
	StepPending StepStatus = iota
	// StepRunning indicates a step is currently in progress.
	StepRunning
	// StepCompleted indicates a step finished successfully.
	StepCompleted
	// StepFailed indicates a step encountered an error.
	StepFailed
)

// Step is one stage of a command's work.
type Step struct {
	ID        string
	Message   string
	Status    StepStatus
	startTime time.Time
}

// progressPrinter reports steps as status lines. Steps run one after another, so it is not
// synchronized.
type progressPrinter struct {
	out     io.Writer
	steps   map[string]*Step
	success *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter
	info    *pterm.PrefixPrinter
}

func newProgressPrinter(out io.Writer, steps ...*Step) *progressPrinter {
	stepMap := make(map[string]*Step, len(steps))
	for _, step := range steps {
		stepMap[step.ID] = step
	}
	success := pterm.Success.WithWriter(out)
	success.Prefix = pterm.Prefix{Text: "✓", Style: pterm.NewStyle(pterm.FgGreen)}
	failure := pterm.Error.WithWriter(out)
	failure.Prefix = pterm.Prefix{Text: "✗", Style: pterm.NewStyle(pterm.FgRed)}
	info := pterm.Info.WithWriter(out)
	info.Prefix = pterm.Prefix{Text: "…", Style: pterm.NewStyle(pterm.FgCyan)}
	return &progressPrinter{out: out, steps: stepMap, success: success, failure: failure, info: info}
}

func (pp *progressPrinter) step(stepID string) *Step {
	step, ok := pp.steps[stepID]
	if !ok {
		// unknown IDs get an ad hoc step
		step = &Step{ID: stepID, Message: stepID}
		pp.steps[stepID] = step
	}
	return step
}

// Start marks stepID as running.
func (pp *progressPrinter) Start(stepID string) {
	step := pp.step(stepID)
	step.Status = StepRunning
	step.startTime = time.Now()
	pp.info.Println(step.Message)
}

// Complete marks stepID done, with an optional replacement message.
func (pp *progressPrinter) Complete(stepID, message string) {
	step := pp.step(stepID)
	step.Status = StepCompleted
	if message == "" {
		message = step.Message
	}
	pp.success.Println(message + elapsed(step))
}

// Fail marks stepID failed with err.
func (pp *progressPrinter) Fail(stepID string, err error) {
	step := pp.step(stepID)
	step.Status = StepFailed
	pp.failure.Println(fmt.Sprintf("%s: %v", step.Message, err))
}

func elapsed(step *Step) string {
	if step.startTime.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (%s)", time.Since(step.startTime).Round(time.Millisecond))
}
