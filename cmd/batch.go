package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-grc/riskflow/internal/model"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process review requests from a JSONL file",
	Long:  "Reads one JSON request per line and runs them concurrently. Escalations resolve through the automatic policy fallback; there is no interactive review in batch mode.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		requests, err := loadBatchRequests(batchFile)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, requests, batchLimit, cfg.Batch.MaxConcurrentRuns, func(ctx context.Context, req *model.ReviewRequest) *model.ReviewResult {
			return env.Pipeline.Run(ctx, req)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "JSONL file of review requests (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of requests to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// loadBatchRequests reads one JSON request per non-blank line.
func loadBatchRequests(path string) ([]*model.ReviewRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open batch file")
	}
	defer f.Close() //nolint:errcheck

	var requests []*model.ReviewRequest
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var req model.ReviewRequest
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return nil, eris.Wrapf(err, "batch: decode line %d", line)
		}
		requests = append(requests, &req)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	return requests, nil
}

// reviewFunc is the callback signature for running one request.
type reviewFunc func(ctx context.Context, req *model.ReviewRequest) *model.ReviewResult

// processBatch applies limit, then runs the requests concurrently. Individual
// run outcomes never abort the batch: every run terminates with a status.
func processBatch(ctx context.Context, requests []*model.ReviewRequest, limit, concurrency int, review reviewFunc) error {
	if len(requests) == 0 {
		zap.L().Info("no requests in batch")
		return nil
	}

	if limit > 0 && len(requests) > limit {
		requests = requests[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("requests", len(requests)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var ready, needInfo, escalated atomic.Int64

	for _, req := range requests {
		g.Go(func() error {
			result := review(gctx, req)

			switch result.Status {
			case model.StatusReady:
				ready.Add(1)
			case model.StatusNeedInfo:
				needInfo.Add(1)
			default:
				escalated.Add(1)
			}

			zap.L().Info("run complete",
				zap.String("run_id", result.Audit.RunID),
				zap.String("status", string(result.Status)),
				zap.String("route", result.Audit.RouteTaken),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("ready", ready.Load()),
		zap.Int64("need_info", needInfo.Load()),
		zap.Int64("escalated", escalated.Load()),
	)
	return nil
}
