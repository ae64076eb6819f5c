package pagescript

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Mode selects how a Job's source is run.
type Mode int

const (
	// ModeAuto classifies the source, as Run does.
	ModeAuto Mode = iota
	ModeProgram
	ModeFragment
)

func (m Mode) String() string {
	switch m {
	case ModeProgram:
		return "program"
	case ModeFragment:
		return "fragment"
	}
	return "auto"
}

// ParseMode parses "auto", "program" or "fragment".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto", "":
		return ModeAuto, nil
	case "program":
		return ModeProgram, nil
	case "fragment":
		return ModeFragment, nil
	}
	return ModeAuto, fmt.Errorf("unknown mode %q", s)
}

// Job is one script to run in a batch.
type Job struct {
	Name    string
	Source  string
	Mode    Mode
	Context ExecutionContext
}

// Result is the outcome of a Job.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// RunAll runs jobs concurrently, at most limit at a time (no limit if limit <= 0).
// Every job gets its own environment, and a failing job does not stop the others.
// Results are in the order of jobs.
func (in *Interpreter) RunAll(ctx context.Context, jobs []Job, limit int) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			start := time.Now()
			err := in.runMode(ctx, job.Mode, job.Source, job.Context)
			results[i] = Result{Name: job.Name, Err: err, Duration: time.Since(start)}
			in.logger.DebugContext(ctx, "job finished", "name", job.Name, "ok", err == nil, "duration", results[i].Duration)
			return nil
		})
	}
	_ = g.Wait() // job errors are reported through results
	return results
}

func (in *Interpreter) runMode(ctx context.Context, mode Mode, src string, ec ExecutionContext) error {
	switch mode {
	case ModeProgram:
		return in.RunProgram(ctx, src, ec)
	case ModeFragment:
		return in.RunFragment(ctx, src, ec)
	}
	return in.Run(ctx, src, ec)
}
