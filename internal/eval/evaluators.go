// internal/eval/evaluators.go
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"tripwise/internal/llm"
)

// Result is one evaluator's verdict for one case.
type Result struct {
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
	Reason string  `json:"reason,omitempty"`
}

// Evaluator scores an answer against a case.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, c Case, answer string) Result
}

// ContainsKeyword passes when the expected text appears in the answer,
// case-insensitively.
type ContainsKeyword struct{}

func (ContainsKeyword) Name() string { return "contains_keyword" }

func (ContainsKeyword) Evaluate(_ context.Context, c Case, answer string) Result {
	if strings.Contains(strings.ToLower(answer), strings.ToLower(c.Expected)) {
		return Result{Score: 1, Passed: true}
	}
	return Result{Score: 0, Passed: false, Reason: fmt.Sprintf("answer does not contain %q", c.Expected)}
}

// JudgeClient is the slice of the LLM client the judge needs.
type JudgeClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, error)
}

const judgePrompt = `You grade a travel assistant's answer.
Score 1.0 when the answer is correct, helpful and consistent with the expected
fact; score 0.0 when it is wrong or unhelpful; use values between for partial
answers. Respond with JSON only: {"score": <0..1>, "reason": "<short reason>"}`

// jsonObjectPattern pulls the first {...} block out of free-form judge output.
var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// LLMJudge asks the model to grade the answer. Any judge failure, including
// malformed output, scores 0 rather than aborting the run.
type LLMJudge struct {
	client    JudgeClient
	threshold float64
}

func NewLLMJudge(client JudgeClient) *LLMJudge {
	return &LLMJudge{client: client, threshold: 0.7}
}

func (j *LLMJudge) Name() string { return "llm_judge" }

func (j *LLMJudge) Evaluate(ctx context.Context, c Case, answer string) Result {
	raw, err := j.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: judgePrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\nExpected fact: %s\nAnswer: %s", c.Input, c.Expected, answer)},
	}, nil)
	if err != nil {
		return Result{Score: 0, Passed: false, Reason: "judge unavailable: " + err.Error()}
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		return Result{Score: 0, Passed: false, Reason: "malformed judge output"}
	}

	return Result{
		Score:  verdict.Score,
		Passed: verdict.Score >= j.threshold,
		Reason: verdict.Reason,
	}
}

type verdict struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

func parseVerdict(raw string) (verdict, bool) {
	match := jsonObjectPattern.FindString(raw)
	if match == "" {
		return verdict{}, false
	}

	var v verdict
	if err := json.Unmarshal([]byte(match), &v); err != nil {
		return verdict{}, false
	}
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return v, true
}
