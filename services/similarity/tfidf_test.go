package similarity

import (
	"reflect"
	"testing"
)

func TestTokenizeStripsPunctuation(t *testing.T) {
	tokens := Tokenize("The LORD of the Rings: Return!")
	want := []string{"the", "lord", "of", "the", "rings", "return"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}

func TestTokenizeEmptyAndSymbols(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Fatalf("expected no tokens for empty string, got %v", got)
	}
	if got := Tokenize("!!! ??? ---"); len(got) != 0 {
		t.Fatalf("expected no tokens for pure punctuation, got %v", got)
	}
	if got := Tokenize("Se7en"); len(got) != 1 || got[0] != "se7en" {
		t.Fatalf("digits should survive tokenization, got %v", got)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	a := map[string]float64{"drama": 1.5}
	empty := map[string]float64{}
	if s := CosineSimilarity(a, empty); s != 0 {
		t.Fatalf("expected 0 for zero-magnitude vector, got %f", s)
	}
	if s := CosineSimilarity(empty, empty); s != 0 {
		t.Fatalf("expected 0 for two empty vectors, got %f", s)
	}
}

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	a := map[string]float64{"prison": 2, "drama": 1}
	s := CosineSimilarity(a, a)
	if s < 0.999 || s > 1.001 {
		t.Fatalf("expected ~1 for identical vectors, got %f", s)
	}
}

func TestExpandByTFIDFBounds(t *testing.T) {
	corpus := []string{"Alien", "Aliens", "Alien 3", "Blade Runner"}
	got := ExpandByTFIDF(corpus, "alien sequel", 10)
	if len(got) != len(corpus) {
		t.Fatalf("topK beyond corpus size should return whole corpus, got %d", len(got))
	}
	inCorpus := make(map[string]bool, len(corpus))
	for _, c := range corpus {
		inCorpus[c] = true
	}
	for _, s := range got {
		if !inCorpus[s] {
			t.Fatalf("result %q not in corpus", s)
		}
	}
}

func TestExpandByTFIDFEmptyCorpus(t *testing.T) {
	if got := ExpandByTFIDF(nil, "anything", 3); len(got) != 0 {
		t.Fatalf("expected empty result for empty corpus, got %v", got)
	}
}

func TestExpandByTFIDFDefaultTopK(t *testing.T) {
	corpus := []string{"a", "b", "c", "d", "e", "f", "g"}
	if got := ExpandByTFIDF(corpus, "zzz", 0); len(got) != DefaultTopK {
		t.Fatalf("expected default topK=%d entries, got %d", DefaultTopK, len(got))
	}
	if got := ExpandByTFIDF(corpus, "zzz", -3); len(got) != DefaultTopK {
		t.Fatalf("negative topK should fall back to default, got %d", len(got))
	}
}

func TestExpandByTFIDFNoOverlapKeepsCorpusOrder(t *testing.T) {
	corpus := []string{"First", "Second", "Third", "Fourth"}
	got := ExpandByTFIDF(corpus, "xyzzy", 3)
	want := []string{"First", "Second", "Third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("all-zero scores must preserve corpus order, got %v", got)
	}
}

func TestExpandByTFIDFDeterministic(t *testing.T) {
	corpus := []string{
		"The Shawshank Redemption",
		"The Godfather",
		"Pulp Fiction",
		"The Dark Knight",
		"Schindler's List",
		"Fight Club",
	}
	first := ExpandByTFIDF(corpus, "prison drama", 3)
	if len(first) > 3 {
		t.Fatalf("expected at most 3 results, got %d", len(first))
	}
	inCorpus := make(map[string]bool, len(corpus))
	for _, c := range corpus {
		inCorpus[c] = true
	}
	for _, s := range first {
		if !inCorpus[s] {
			t.Fatalf("result %q not in corpus", s)
		}
	}
	for i := 0; i < 10; i++ {
		again := ExpandByTFIDF(corpus, "prison drama", 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
}

func TestExpandByTFIDFRanksOverlapFirst(t *testing.T) {
	corpus := []string{"Cooking with Fire", "Space Odyssey", "Space Cowboys"}
	got := ExpandByTFIDF(corpus, "space adventure", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0] != "Space Odyssey" && got[0] != "Space Cowboys" {
		t.Fatalf("expected a space title first, got %q", got[0])
	}
}
