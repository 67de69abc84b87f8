package job

import (
	"context"

	"resumerag/internal/service"
)

// SnapshotJob re-saves the corpus on a schedule. Mutations already persist
// inline; this is a safety net against a snapshot write that failed at
// mutation time.
type SnapshotJob struct {
	rag *service.RAGService
}

func NewSnapshotJob(rag *service.RAGService) *SnapshotJob {
	return &SnapshotJob{rag: rag}
}

func (j *SnapshotJob) Name() string {
	return "corpus_snapshot"
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	if j.rag == nil {
		return nil
	}
	return j.rag.SaveSnapshot(ctx)
}
