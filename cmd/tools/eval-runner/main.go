// cmd/tools/eval-runner/main.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"tripwise/internal/common/config"
	"tripwise/internal/common/logger"
	"tripwise/internal/eval"
	"tripwise/internal/llm"
	"tripwise/internal/models"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "base URL of the chat server")
	concurrency := flag.Int("concurrency", 2, "cases evaluated in parallel")
	useJudge := flag.Bool("judge", false, "also grade answers with the LLM judge")
	datasetPath := flag.String("dataset", "", "JSON dataset file; empty uses the builtin dataset")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	dataset := eval.BuiltinDataset()
	if *datasetPath != "" {
		data, err := os.ReadFile(*datasetPath)
		if err != nil {
			zapLog.Fatal("dataset read failed", zap.Error(err))
		}
		if err := json.Unmarshal(data, &dataset); err != nil {
			zapLog.Fatal("dataset parse failed", zap.Error(err))
		}
	}

	evaluators := []eval.Evaluator{eval.ContainsKeyword{}}
	if *useJudge {
		cfg, err := config.Load()
		if err != nil {
			zapLog.Fatal("config load failed", zap.Error(err))
		}
		llmClient := llm.NewClient(llm.LoadConfig(cfg), &llmLoggerAdapter{log})
		evaluators = append(evaluators, eval.NewLLMJudge(llmClient))
	}

	target := askTarget(*serverURL)
	runner := eval.NewRunner(target, evaluators, *concurrency, &evalLoggerAdapter{log})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report := runner.Run(ctx, dataset)

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		zapLog.Fatal("report encode failed", zap.Error(err))
	}
	fmt.Println(string(output))

	for name, summary := range report.Summaries {
		if summary.Passed < summary.Total {
			zapLog.Warn("metric below full pass",
				zap.String("metric", name),
				zap.Int("passed", summary.Passed),
				zap.Int("total", summary.Total),
			)
		}
	}
}

// askTarget sends each case through the server's one-shot question endpoint.
func askTarget(baseURL string) eval.Target {
	client := &http.Client{}

	return func(ctx context.Context, input string) (string, error) {
		body, _ := json.Marshal(models.AskRequest{Question: input})

		req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/ask", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ask returned status %d", resp.StatusCode)
		}

		var answer models.AskResponse
		if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
			return "", err
		}
		return answer.Answer, nil
	}
}

type evalLoggerAdapter struct {
	logger.Logger
}

func (a *evalLoggerAdapter) With(fields map[string]interface{}) eval.Logger {
	return &evalLoggerAdapter{a.Logger.With(fields)}
}

type llmLoggerAdapter struct {
	logger.Logger
}

func (a *llmLoggerAdapter) With(fields map[string]interface{}) llm.Logger {
	return &llmLoggerAdapter{a.Logger.With(fields)}
}
