package moderation

import (
	"context"

	"go.uber.org/zap"
)

// fallbackClassifier tries the primary classifier and, on any error, answers
// with the secondary. Selection by availability lives here so business logic
// never branches on environment inspection.
type fallbackClassifier struct {
	primary   Classifier
	secondary Classifier
}

// WithFallback decorates primary so that classification errors degrade to
// secondary instead of surfacing. The secondary is expected to be local and
// infallible (the keyword heuristic).
func WithFallback(primary, secondary Classifier) Classifier {
	return &fallbackClassifier{primary: primary, secondary: secondary}
}

func (f *fallbackClassifier) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *fallbackClassifier) Classify(ctx context.Context, text string) (Verdict, error) {
	verdict, err := f.primary.Classify(ctx, text)
	if err == nil {
		return verdict, nil
	}

	zap.L().Warn("moderation: primary classifier unavailable, degrading to fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.Error(err),
	)
	return f.secondary.Classify(ctx, text)
}
