package similarity

import (
	"math"
	"sort"
	"strings"
)

// DefaultTopK is used when ExpandByTFIDF is called with a non-positive limit.
const DefaultTopK = 5

// Tokenize lowercases the text, replaces every character outside [a-z0-9]
// with a space and splits on whitespace. Empty tokens are dropped.
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	return strings.Fields(mapped)
}

// Model holds the TF-IDF vectors for a fixed corpus. Query strings are
// vectorized against the corpus's IDF table rather than recomputing it.
type Model struct {
	Docs    []string
	IDF     map[string]float64
	Vectors []map[string]float64
}

// BuildTFIDF computes document frequencies and per-document TF-IDF vectors
// for the corpus. IDF uses ln(1 + N/(1+df)).
func BuildTFIDF(docs []string) *Model {
	tokens := make([][]string, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		tokens[i] = Tokenize(d)
		seen := make(map[string]bool, len(tokens[i]))
		for _, t := range tokens[i] {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log(1 + float64(len(docs))/float64(1+freq))
	}

	vectors := make([]map[string]float64, len(docs))
	for i, toks := range tokens {
		vectors[i] = vectorize(toks, idf)
	}

	return &Model{Docs: docs, IDF: idf, Vectors: vectors}
}

// QueryVector builds a TF-IDF vector for the query using the model's own IDF
// table. Terms unknown to the corpus get zero weight.
func (m *Model) QueryVector(query string) map[string]float64 {
	return vectorize(Tokenize(query), m.IDF)
}

func vectorize(tokens []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	vec := make(map[string]float64, len(tf))
	for t, f := range tf {
		vec[t] = float64(f) * idf[t]
	}
	return vec
}

// CosineSimilarity returns the cosine of the angle between two sparse
// vectors, or 0 when either vector has zero magnitude. The dot product
// iterates over the smaller vector only.
func CosineSimilarity(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for k, v := range a {
		dot += v * b[k]
	}
	var magA, magB float64
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ExpandByTFIDF ranks the corpus entries by similarity to the query and
// returns the topK best matches. Ties keep the original corpus order, so a
// query with no overlap at all still returns the first topK entries rather
// than nothing.
func ExpandByTFIDF(corpus []string, query string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(corpus) == 0 {
		return nil
	}

	model := BuildTFIDF(corpus)
	qvec := model.QueryVector(query)

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(corpus))
	for i, vec := range model.Vectors {
		scores[i] = scored{index: i, score: CosineSimilarity(qvec, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]string, 0, topK)
	for _, s := range scores[:topK] {
		out = append(out, corpus[s.index])
	}
	return out
}
