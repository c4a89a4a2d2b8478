package elastic

import (
	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
	"github.com/collecta-cloud/collecta/internal/domain/search/query"
)

// similarityScript scores a chunk by cosine similarity to the query vector,
// shifted by +1.0 so scores stay non-negative.
const similarityScript = "cosineSimilarity(params.query_vector, 'embedding') + 1.0"

type body = map[string]any

// buildSearchBody translates a query.Query into the index's JSON query DSL.
func buildSearchBody(q query.Query) body {
	return body{
		"size":      q.Size,
		"query":     buildQuery(q),
		"highlight": body{"fields": body{"chunk_text": body{}}},
	}
}

func buildQuery(q query.Query) body {
	switch q.Mode {
	case mode.Vector:
		// Similarity over a match-all base set; filters still apply.
		return boolQuery(scriptScoreQuery(q.Vector), q.Filters)
	case mode.Hybrid:
		// Base lexical score plus a weighted similarity addend. Both sums:
		// a chunk must still match lexically, the vector term only re-ranks.
		return body{
			"function_score": body{
				"query": boolQuery(matchQuery(q.Text), q.Filters),
				"functions": []body{{
					"script_score": body{"script": similarityScriptBody(q.Vector)},
					"weight":       q.HybridWeight,
				}},
				"score_mode": "sum",
				"boost_mode": "sum",
			},
		}
	default: // keyword
		return boolQuery(matchQuery(q.Text), q.Filters)
	}
}

func matchQuery(text string) body {
	return body{"match": body{"chunk_text": body{"query": text}}}
}

func scriptScoreQuery(vector []float32) body {
	return body{
		"script_score": body{
			"query":  body{"match_all": body{}},
			"script": similarityScriptBody(vector),
		},
	}
}

func similarityScriptBody(vector []float32) body {
	return body{
		"source": similarityScript,
		"params": body{"query_vector": vector},
	}
}

func boolQuery(must body, f filter.Filters) body {
	b := body{"must": []body{must}}
	if clauses := filterClauses(f); len(clauses) > 0 {
		b["filter"] = clauses
	}
	return body{"bool": b}
}

// filterClauses maps the structured filters to exact-match predicates.
// Tags use a terms clause: a chunk matches if ANY requested tag is present.
func filterClauses(f filter.Filters) []body {
	var clauses []body
	if f.ResourceType != nil {
		clauses = append(clauses, body{"term": body{"resource_type": *f.ResourceType}})
	}
	if f.Domain != nil {
		clauses = append(clauses, body{"term": body{"domain": *f.Domain}})
	}
	if f.Status != nil {
		clauses = append(clauses, body{"term": body{"status": *f.Status}})
	}
	if f.IsPinned != nil {
		clauses = append(clauses, body{"term": body{"is_pinned": *f.IsPinned}})
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, body{"terms": body{"tags": f.Tags}})
	}
	return clauses
}
