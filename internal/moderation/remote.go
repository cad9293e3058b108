package moderation

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/meridian-grc/riskflow/internal/resilience"
	"github.com/meridian-grc/riskflow/pkg/anthropic"
)

const remoteSystemPrompt = `You are a content-moderation classifier for a financial
compliance workflow. Screen the analyst note for content that must not
influence a compliance decision: threats, discriminatory language, or
requests to fabricate or falsify records.

Reply with exactly one line:
  PASS
or
  FAIL: <short reason naming the trigger>`

// RemoteClassifier screens text with the Anthropic Messages API. Calls are
// rate limited across runs and retried on transient failures; any remaining
// error is returned so the fallback decorator can take over.
type RemoteClassifier struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// RemoteOption configures the remote classifier.
type RemoteOption func(*RemoteClassifier)

// WithRateLimit caps classification calls at r per second with burst b.
func WithRateLimit(r float64, b int) RemoteOption {
	return func(c *RemoteClassifier) {
		c.limiter = rate.NewLimiter(rate.Limit(r), b)
	}
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) RemoteOption {
	return func(c *RemoteClassifier) {
		c.retry = cfg
	}
}

// NewRemoteClassifier creates a classifier backed by the given client.
func NewRemoteClassifier(client anthropic.Client, model string, opts ...RemoteOption) *RemoteClassifier {
	c := &RemoteClassifier{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RemoteClassifier) Name() string { return "remote" }

func (c *RemoteClassifier) Classify(ctx context.Context, text string) (Verdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Verdict{}, eris.Wrap(err, "moderation: rate limiter wait")
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     c.model,
			MaxTokens: 64,
			System:    remoteSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: text}},
		})
	})
	if err != nil {
		return Verdict{}, eris.Wrap(err, "moderation: remote classification")
	}

	resp.Usage.LogCost(c.model, "moderation")

	return parseVerdict(resp.Text)
}

// parseVerdict interprets the classifier reply. Anything that is not a
// recognizable PASS/FAIL line is an error, handing control to the fallback.
func parseVerdict(reply string) (Verdict, error) {
	line := strings.TrimSpace(reply)
	upper := strings.ToUpper(line)

	switch {
	case upper == "PASS" || strings.HasPrefix(upper, "PASS"):
		return Verdict{Passed: true, Reason: "passed remote moderation"}, nil
	case strings.HasPrefix(upper, "FAIL"):
		reason := strings.TrimSpace(strings.TrimPrefix(line[4:], ":"))
		if reason == "" {
			reason = "unspecified"
		}
		return Verdict{Passed: false, Reason: "remote moderation flagged: " + reason}, nil
	default:
		return Verdict{}, eris.Errorf("moderation: unparseable classifier reply %q", line)
	}
}
