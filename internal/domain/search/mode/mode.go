package mode

// Mode is the search scoring strategy.
type Mode string

// Search mode constants.
const (
	// Keyword scores by lexical match against chunk text.
	Keyword Mode = "keyword"
	// Vector scores by cosine similarity between the query embedding and
	// each chunk's stored embedding, shifted by +1.0 to stay non-negative.
	Vector Mode = "vector"
	// Hybrid keeps the lexical match as the base score and adds a weighted
	// similarity term. A chunk still has to match lexically to surface;
	// the vector contribution only re-ranks.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Vector || m == Hybrid
}

// NeedsEmbedding reports whether the mode requires a query embedding.
func (m Mode) NeedsEmbedding() bool {
	return m == Vector || m == Hybrid
}
