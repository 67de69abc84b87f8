package store

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"resumerag/internal/model"
	appErr "resumerag/internal/pkg/errors"
)

// Corpus holds the aligned resume/embedding pairs. resumes[i] and
// embeddings[i] always describe the same document: both halves are appended
// or removed together under the write lock, and ids stay unique.
type Corpus struct {
	mu         sync.RWMutex
	dimension  int
	resumes    []model.Resume
	embeddings [][]float32
	ids        map[string]struct{}
}

func NewCorpus() *Corpus {
	return &Corpus{
		ids: make(map[string]struct{}),
	}
}

// Insert appends a resume and its embedding as one unit. Duplicate ids are
// rejected, and the embedding width must match the first one ever observed.
func (c *Corpus) Insert(resume model.Resume, embedding []float32) error {
	if resume.ID == "" || resume.Content == "" {
		return appErr.ErrInvalid
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", appErr.ErrDimension)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ids[resume.ID]; exists {
		return fmt.Errorf("%w: resume id %s already indexed", appErr.ErrConflict, resume.ID)
	}
	if c.dimension == 0 {
		c.dimension = len(embedding)
	} else if len(embedding) != c.dimension {
		return fmt.Errorf("%w: got %d, want %d", appErr.ErrDimension, len(embedding), c.dimension)
	}
	c.resumes = append(c.resumes, resume)
	c.embeddings = append(c.embeddings, embedding)
	c.ids[resume.ID] = struct{}{}
	return nil
}

// Remove deletes the resume with the given id along with its embedding.
// Returns false without touching state when the id is unknown.
func (c *Corpus) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ids[id]; !exists {
		return false
	}
	idx := -1
	for i := range c.resumes {
		if c.resumes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c.resumes = append(c.resumes[:idx], c.resumes[idx+1:]...)
	c.embeddings = append(c.embeddings[:idx], c.embeddings[idx+1:]...)
	delete(c.ids, id)
	return true
}

// All returns the stored resumes in insertion order, without embeddings.
func (c *Corpus) All() []model.Resume {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Resume, len(c.resumes))
	copy(out, c.resumes)
	return out
}

func (c *Corpus) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resumes)
}

func (c *Corpus) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// Rank scores every stored embedding against the query by cosine similarity
// and returns the top k matches, best first. k is clamped to [1, size]. Equal
// scores keep their insertion order so results are reproducible.
func (c *Corpus) Rank(query []float32, k int) []model.SearchMatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.resumes) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(c.resumes) {
		k = len(c.resumes)
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(c.embeddings))
	for i, emb := range c.embeddings {
		scores[i] = scored{idx: i, score: cosineSimilarity(query, emb)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].idx < scores[j].idx
	})
	matches := make([]model.SearchMatch, 0, k)
	for i := 0; i < k; i++ {
		matches = append(matches, model.SearchMatch{
			Resume: c.resumes[scores[i].idx],
			Score:  scores[i].score,
		})
	}
	return matches
}

// State snapshots the whole corpus for persistence.
func (c *Corpus) State() model.CorpusState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := model.CorpusState{
		Resumes:    make([]model.Resume, len(c.resumes)),
		Embeddings: make([][]float32, len(c.embeddings)),
	}
	copy(state.Resumes, c.resumes)
	for i, emb := range c.embeddings {
		vec := make([]float32, len(emb))
		copy(vec, emb)
		state.Embeddings[i] = vec
	}
	return state
}

// Restore replaces the corpus content with a previously saved state. The
// state must be well formed (aligned halves, unique ids, one embedding
// width); a malformed state leaves the corpus untouched.
func (c *Corpus) Restore(state model.CorpusState) error {
	if len(state.Resumes) != len(state.Embeddings) {
		return fmt.Errorf("misaligned state: %d resumes, %d embeddings", len(state.Resumes), len(state.Embeddings))
	}
	ids := make(map[string]struct{}, len(state.Resumes))
	dimension := 0
	for i, resume := range state.Resumes {
		if resume.ID == "" {
			return fmt.Errorf("resume at position %d has no id", i)
		}
		if _, exists := ids[resume.ID]; exists {
			return fmt.Errorf("duplicate resume id %s", resume.ID)
		}
		ids[resume.ID] = struct{}{}
		if len(state.Embeddings[i]) == 0 {
			return fmt.Errorf("resume %s has an empty embedding", resume.ID)
		}
		if dimension == 0 {
			dimension = len(state.Embeddings[i])
		} else if len(state.Embeddings[i]) != dimension {
			return fmt.Errorf("resume %s embedding width %d differs from %d", resume.ID, len(state.Embeddings[i]), dimension)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes = state.Resumes
	c.embeddings = state.Embeddings
	c.ids = ids
	c.dimension = dimension
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
