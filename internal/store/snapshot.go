package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"resumerag/internal/model"
)

// Snapshot persists the whole corpus state as a single JSON file. Writes go
// to a temp file in the target directory followed by a rename, so a reader
// never observes a half-written snapshot.
type Snapshot struct {
	mu   sync.Mutex
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Path() string {
	return s.path
}

func (s *Snapshot) Save(ctx context.Context, state model.CorpusState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rag_state-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := json.NewEncoder(tmp).Encode(&state); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	logutil.GetLogger(ctx).Debug("snapshot saved",
		zap.String("path", s.path),
		zap.Int("resumes", len(state.Resumes)),
	)
	return nil
}

// Load reads the last snapshot. A missing, unreadable or malformed file
// yields an empty state so startup never fails on bad persistence.
func (s *Snapshot) Load(ctx context.Context) model.CorpusState {
	logger := logutil.GetLogger(ctx).With(zap.String("path", s.path))
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("snapshot unreadable, starting empty", zap.Error(err))
		}
		return model.CorpusState{}
	}
	var state model.CorpusState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("snapshot corrupt, starting empty", zap.Error(err))
		return model.CorpusState{}
	}
	if len(state.Resumes) != len(state.Embeddings) {
		logger.Warn("snapshot misaligned, starting empty",
			zap.Int("resumes", len(state.Resumes)),
			zap.Int("embeddings", len(state.Embeddings)),
		)
		return model.CorpusState{}
	}
	logger.Info("snapshot loaded", zap.Int("resumes", len(state.Resumes)))
	return state
}
