package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-grc/riskflow/internal/audit"
	"github.com/meridian-grc/riskflow/internal/hitl"
	"github.com/meridian-grc/riskflow/internal/moderation"
	"github.com/meridian-grc/riskflow/internal/pipeline"
	anthropicpkg "github.com/meridian-grc/riskflow/pkg/anthropic"
)

// pipelineEnv holds the initialized store, emitters, and pipeline needed by
// the review/batch/serve commands.
type pipelineEnv struct {
	Store    audit.Store // nil when store driver is "none"
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the queryable audit store. Driver "none" returns a nil
// store: runs are still journaled to the file sink, just not queryable.
func initStore(ctx context.Context) (audit.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "riskflow.db"
		}
		return audit.NewSQLite(dsn)
	case "postgres":
		return audit.NewPostgres(ctx, cfg.Store.DatabaseURL, &audit.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClassifier builds the moderation classifier. The anthropic provider
// degrades to the keyword heuristic when the remote call fails.
func initClassifier() (moderation.Classifier, error) {
	heuristic := moderation.NewHeuristicClassifier(cfg.Moderation.ExtraKeywords)

	switch cfg.Moderation.Provider {
	case "", "heuristic":
		return heuristic, nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic moderation requires an API key (RISKFLOW_ANTHROPIC_KEY)")
		}
		remote := moderation.NewRemoteClassifier(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.ModerationModel,
			moderation.WithRateLimit(cfg.Moderation.RatePerSecond, 1),
		)
		return moderation.WithFallback(remote, heuristic), nil
	default:
		return nil, eris.Errorf("unsupported moderation provider: %s", cfg.Moderation.Provider)
	}
}

// initPipeline sets up the store, file sink, classifier, and reviewer, and
// builds the Pipeline. Callers should defer env.Close(). A nil reviewer means
// escalations resolve through the automatic policy fallback.
func initPipeline(ctx context.Context, reviewer hitl.Reviewer) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	emitters := []audit.Emitter{}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		emitters = append(emitters, st)
	}

	sink, err := audit.NewFileSink(cfg.Audit.LogDir)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, eris.Wrap(err, "init audit file sink")
	}
	emitters = append(emitters, sink)

	classifier, err := initClassifier()
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	zap.L().Debug("pipeline initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("moderation_provider", cfg.Moderation.Provider),
		zap.Bool("interactive", reviewer != nil),
	)

	return &pipelineEnv{
		Store: st,
		Pipeline: pipeline.New(pipeline.Options{
			Scoring:           cfg.Scoring,
			Classifier:        classifier,
			Reviewer:          reviewer,
			AllowAutoCritical: cfg.HITL.AllowAutoCritical,
			Emitters:          emitters,
			MaxToolCalls:      cfg.Limits.MaxToolCalls,
			MaxModelCalls:     cfg.Limits.MaxModelCalls,
		}),
	}, nil
}
