// internal/eval/runner.go
package eval

import (
	"context"
	"sync"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Target produces the assistant's answer for one input.
type Target func(ctx context.Context, input string) (string, error)

// CaseReport is the full verdict set for one case.
type CaseReport struct {
	Case    Case              `json:"case"`
	Answer  string            `json:"answer"`
	Err     string            `json:"error,omitempty"`
	Results map[string]Result `json:"results"`
}

// Summary aggregates one metric over the whole run.
type Summary struct {
	Avg    float64 `json:"avg"`
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
}

// Report is the outcome of a full evaluation run.
type Report struct {
	Cases     []CaseReport       `json:"cases"`
	Summaries map[string]Summary `json:"summaries"`
}

// Runner drives the target over a dataset with bounded concurrency and
// applies every evaluator to every answer.
type Runner struct {
	target      Target
	evaluators  []Evaluator
	concurrency int
	logger      Logger
}

func NewRunner(target Target, evaluators []Evaluator, concurrency int, log Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Runner{
		target:      target,
		evaluators:  evaluators,
		concurrency: concurrency,
		logger: log.With(map[string]interface{}{
			"component": "eval-runner",
		}),
	}
}

func (r *Runner) Run(ctx context.Context, dataset []Case) *Report {
	reports := make([]CaseReport, len(dataset))

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for i, c := range dataset {
		wg.Add(1)
		go func(i int, c Case) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			reports[i] = r.runCase(ctx, c)
		}(i, c)
	}
	wg.Wait()

	report := &Report{
		Cases:     reports,
		Summaries: summarize(reports, r.evaluators),
	}

	for name, summary := range report.Summaries {
		r.logger.Info("metric summary", map[string]interface{}{
			"metric": name,
			"avg":    summary.Avg,
			"passed": summary.Passed,
			"total":  summary.Total,
		})
	}
	return report
}

func (r *Runner) runCase(ctx context.Context, c Case) CaseReport {
	report := CaseReport{
		Case:    c,
		Results: make(map[string]Result, len(r.evaluators)),
	}

	answer, err := r.target(ctx, c.Input)
	if err != nil {
		report.Err = err.Error()
		r.logger.Warn("target failed", map[string]interface{}{
			"input": c.Input,
			"error": err.Error(),
		})
		// A failed target scores 0 on every metric
		for _, evaluator := range r.evaluators {
			report.Results[evaluator.Name()] = Result{Score: 0, Passed: false, Reason: "target error"}
		}
		return report
	}

	report.Answer = answer
	for _, evaluator := range r.evaluators {
		report.Results[evaluator.Name()] = evaluator.Evaluate(ctx, c, answer)
	}
	return report
}

func summarize(reports []CaseReport, evaluators []Evaluator) map[string]Summary {
	summaries := make(map[string]Summary, len(evaluators))
	for _, evaluator := range evaluators {
		name := evaluator.Name()
		var sum float64
		passed := 0
		for _, report := range reports {
			result := report.Results[name]
			sum += result.Score
			if result.Passed {
				passed++
			}
		}
		summary := Summary{Passed: passed, Total: len(reports)}
		if len(reports) > 0 {
			summary.Avg = sum / float64(len(reports))
		}
		summaries[name] = summary
	}
	return summaries
}
