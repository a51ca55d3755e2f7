package domain

import "time"

// StepResult records one step of a daily cycle run. A failed step keeps
// Err's message; the cycle always proceeds to the remaining steps.
type StepResult struct {
	Name     string
	OK       bool
	Error    string
	Duration time.Duration
}

// CycleSummary is the structured outcome of RunDailyCycle.
type CycleSummary struct {
	OrgID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
}

// Failed reports whether any step of the cycle failed.
func (s CycleSummary) Failed() bool {
	for _, step := range s.Steps {
		if !step.OK {
			return true
		}
	}
	return false
}
