package domain

// Document is a single loaded document before aggregation.
type Document struct {
	Name    string
	Content string
}

// Section is one labelled block of aggregated content, the intermediate
// representation between the document loader and the chunker.
type Section struct {
	Label string
	Body  string
}

// Chunk is a bounded span of document text carrying a section label,
// the unit of retrieval. Chunks are immutable once created.
type Chunk struct {
	Text    string
	Source  string
	Section string
}

// ChunkID identifies a chunk by its ordinal position in the build sequence.
// The chunk list and the vector index share this positional key.
type ChunkID int

// RetrievalResult is one ranked chunk returned for a query. Score is the
// inverse-distance transform 1/(1+distance), in (0, 1]; it is not a
// probability and not cosine similarity.
type RetrievalResult struct {
	Text     string  `json:"text"`
	Section  string  `json:"section"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
	Distance float32 `json:"distance"`
	Rank     int     `json:"rank"`
}

// Answer is the assistant's reply to a user query, with the section labels
// that contributed context.
type Answer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
	Query   string   `json:"query"`
}
