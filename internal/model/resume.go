package model

// Resume is one indexed document. The ID is assigned by the boundary layer
// (uuid for uploads) before the resume reaches the corpus.
type Resume struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SearchMatch is a ranked retrieval hit.
type SearchMatch struct {
	Resume Resume
	Score  float64
}

// CorpusState is the durable snapshot of the whole corpus. Position i in
// Embeddings belongs to position i in Resumes; the two slices are always
// written and read together.
type CorpusState struct {
	Resumes    []Resume    `json:"resumes"`
	Embeddings [][]float32 `json:"embeddings"`
}
