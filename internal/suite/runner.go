package suite

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/agent"
	"github.com/xkilldash9x/speckled/internal/reporting"
)

// SpecRunner executes one specification. *agent.Agent satisfies it.
type SpecRunner interface {
	RunSpec(ctx context.Context, description, target string) (*schemas.Verdict, error)
}

// Runner executes suites with bounded concurrency. Runs share nothing but
// the SpecRunner, so one failing spec never affects another.
type Runner struct {
	logger      *zap.Logger
	specs       SpecRunner
	concurrency int
	now         func() time.Time
}

// NewRunner creates a runner. A concurrency below one runs specs serially.
func NewRunner(logger *zap.Logger, specs SpecRunner, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		logger:      logger.Named("suite"),
		specs:       specs,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run executes every spec and returns the results in input order. Each
// result is also handed to reporter, when non-nil, as soon as it is
// available. Specs not yet started when ctx is done are reported as
// canceled.
func (r *Runner) Run(ctx context.Context, specs []Spec, reporter reporting.Reporter) []schemas.SpecResult {
	results := make([]schemas.SpecResult, len(specs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = r.runOne(ctx, spec)
			if reporter != nil {
				if err := reporter.Write(&results[i]); err != nil {
					r.logger.Error("Failed to report spec result.", zap.String("spec", spec.Name), zap.Error(err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	passed := 0
	for _, res := range results {
		if res.Passed() {
			passed++
		}
	}
	r.logger.Info("Suite finished.", zap.Int("specs", len(specs)), zap.Int("passed", passed), zap.Int("failed", len(specs)-passed))
	return results
}

func (r *Runner) runOne(ctx context.Context, spec Spec) schemas.SpecResult {
	res := schemas.SpecResult{Name: spec.Name, Description: spec.Description, Target: spec.Target}
	if err := ctx.Err(); err != nil {
		res.FailureKind = string(agent.KindCanceled)
		res.Error = err.Error()
		return res
	}

	logger := r.logger.With(zap.String("spec", spec.Name))
	logger.Info("Running spec.", zap.String("target", spec.Target))

	start := r.now()
	verdict, err := r.specs.RunSpec(ctx, spec.Description, spec.Target)
	res.Duration = r.now().Sub(start)

	if err != nil {
		res.FailureKind = string(agent.Classify(err))
		res.Error = err.Error()
		var runErr *agent.RunError
		if errors.As(err, &runErr) {
			res.RunID = runErr.RunID
			res.Steps = runErr.Step
		}
		logger.Warn("Spec run failed.", zap.String("kind", res.FailureKind), zap.Error(err))
		return res
	}

	res.RunID = verdict.RunID
	res.Success = verdict.Success
	res.Explanation = verdict.Explanation
	res.Steps = verdict.Steps
	res.Transcript = verdict.Transcript
	logger.Info("Spec finished.", zap.Bool("success", verdict.Success), zap.Int("steps", verdict.Steps))
	return res
}
