package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"paperqa/internal/app"
	"paperqa/internal/httputil"
	"paperqa/internal/loader"
	"paperqa/internal/pipeline"
	"paperqa/internal/queue"
)

type ingestTaskPayload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	if deps.Queue == nil {
		deps.Log.Error("QUEUE_PROVIDER must be set for the ingest worker")
		os.Exit(1)
	}
	deps.Log.Info("ingest worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeIngest, func(ctx context.Context, task queue.Task) error {
			var payload ingestTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleIngest(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "ingest-worker")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("ingest worker stopped", "err", err)
	}
}

func handleIngest(ctx context.Context, deps app.Deps, payload ingestTaskPayload) error {
	res, err := deps.Pipeline.Ingest(ctx, payload.Content, payload.Filename)
	if err != nil {
		// Bad input cannot succeed on retry; log and drop instead of
		// bouncing the task until its attempts run out.
		var le *loader.LoadError
		if errors.As(err, &le) || errors.Is(err, pipeline.ErrEmptyDocument) {
			deps.Log.Error("document rejected", "filename", payload.Filename, "err", err)
			return nil
		}
		return err
	}
	deps.Log.Info("document ingested",
		"document_id", res.DocumentID,
		"pages", res.PageCount,
		"chunks", res.ChunkCount,
		"category", res.SizeCategory,
	)
	return nil
}
