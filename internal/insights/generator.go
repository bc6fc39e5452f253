package insights

import (
	"context"

	"github.com/jonathan/career-coach/internal/artifacts"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/prompts"
	"github.com/jonathan/career-coach/internal/retry"
	"github.com/jonathan/career-coach/internal/schemas"
)

// Generator produces validated industry reports through the retry executor.
// It is shared by the lazy cache manager and the scheduled batch refresher.
type Generator struct {
	client     llm.Client
	executor   *retry.Executor
	maxRetries int
}

// NewGenerator creates an insight generator.
func NewGenerator(client llm.Client, executor *retry.Executor, maxRetries int) *Generator {
	return &Generator{client: client, executor: executor, maxRetries: maxRetries}
}

// Generate prompts the model for an industry market report and returns it once
// it passes schema validation. Transport and validation failures are retried
// uniformly; exhaustion surfaces as a GenerationUnavailableError.
func (g *Generator) Generate(ctx context.Context, industry string) (*artifacts.IndustryInsight, error) {
	prompt := prompts.Format(prompts.MustGet("insights.json", "industry-insight"), map[string]string{
		"Industry": industry,
	})

	var report *artifacts.IndustryInsight
	err := g.executor.Do(ctx, "industry-insight:"+industry, func(ctx context.Context) error {
		raw, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
		if err != nil {
			return err
		}

		decoded, err := schemas.DecodeIndustryInsight(llm.CleanJSONBlock(raw))
		if err != nil {
			return err
		}

		report = decoded
		return nil
	}, g.maxRetries)
	if err != nil {
		return nil, err
	}

	return report, nil
}
