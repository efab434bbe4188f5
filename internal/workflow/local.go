package workflow

import (
	"context"

	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
)

// LocalMetadata runs the generator in-process.
type LocalMetadata struct {
	Generator *metadata.Generator
}

func (l LocalMetadata) Generate(ctx context.Context, req UploadRequest) (metadata.Metadata, error) {
	result := l.Generator.Draft(ctx, metadata.Request{
		Category:     req.Category,
		Language:     req.Language,
		ContextLabel: metadata.ContextLabel(req.Video.FileName, req.Video.URL),
	})
	return result.Metadata, nil
}

// LocalSubmitter runs the orchestrator in-process.
type LocalSubmitter struct {
	Orchestrator *submission.Orchestrator
}

func (l LocalSubmitter) Submit(ctx context.Context, req submission.Request) (submission.Result, error) {
	return l.Orchestrator.Submit(ctx, req), nil
}
