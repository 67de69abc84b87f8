package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"resumerag/internal/model"
)

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "rag_state.json")
	snap := NewSnapshot(path)

	state := model.CorpusState{
		Resumes: []model.Resume{
			{ID: "a", Filename: "a.txt", Content: "alpha"},
			{ID: "b", Filename: "b.txt", Content: "beta"},
		},
		Embeddings: [][]float32{
			{0.25, -1.5, 3},
			{0.125, 0.5, -0.75},
		},
	}
	require.NoError(t, snap.Save(context.Background(), state))

	loaded := snap.Load(context.Background())
	require.Equal(t, state.Resumes, loaded.Resumes)
	require.Len(t, loaded.Embeddings, len(state.Embeddings))
	for i := range state.Embeddings {
		require.Len(t, loaded.Embeddings[i], len(state.Embeddings[i]))
		for j := range state.Embeddings[i] {
			require.InDelta(t, state.Embeddings[i][j], loaded.Embeddings[i][j], 1e-6)
		}
	}
}

func TestSnapshotSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	snap := NewSnapshot(filepath.Join(dir, "rag_state.json"))
	require.NoError(t, snap.Save(context.Background(), model.CorpusState{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "rag_state.json", entries[0].Name())
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	snap := NewSnapshot(filepath.Join(t.TempDir(), "rag_state.json"))
	state := snap.Load(context.Background())
	require.Empty(t, state.Resumes)
	require.Empty(t, state.Embeddings)
}

func TestSnapshotLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state := NewSnapshot(path).Load(context.Background())
	require.Empty(t, state.Resumes)
	require.Empty(t, state.Embeddings)
}

func TestSnapshotLoadMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag_state.json")
	payload := `{"resumes":[{"id":"a","filename":"a.txt","content":"alpha"}],"embeddings":[]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	state := NewSnapshot(path).Load(context.Background())
	require.Empty(t, state.Resumes)
	require.Empty(t, state.Embeddings)
}

func TestSnapshotSaveFailsWhenDirIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	snap := NewSnapshot(filepath.Join(blocker, "rag_state.json"))
	require.Error(t, snap.Save(context.Background(), model.CorpusState{}))
}
