package optimizer

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("¿Cuánto cuesta alquilar un SUV?")
	want := []string{"cuánto", "cuesta", "alquilar", "un", "suv"}
	if len(tokens) != len(want) {
		t.Fatalf("tokenize returned %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeDropsShortAndEmpty(t *testing.T) {
	if got := tokenize("a , . !"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
	if got := tokenize(""); len(got) != 0 {
		t.Errorf("expected no tokens for empty text, got %v", got)
	}
}

func TestIdenticalDocumentsScoreOne(t *testing.T) {
	docs := []string{"alquilar un suv barato", "reservar sedan familiar"}
	vec := fitVectorizer(append(docs, "alquilar un suv barato"))

	sim := cosineSimilarity(
		vec.vectorize("alquilar un suv barato"),
		vec.vectorize("alquilar un suv barato"),
	)
	if !almostEqual(sim, 1.0) {
		t.Errorf("identical documents should score 1.0, got %v", sim)
	}
}

func TestDisjointDocumentsScoreZero(t *testing.T) {
	docs := []string{"alquilar suv montaña", "precio tarifa diaria"}
	vec := fitVectorizer(docs)

	sim := cosineSimilarity(
		vec.vectorize("alquilar suv montaña"),
		vec.vectorize("precio tarifa diaria"),
	)
	if !almostEqual(sim, 0.0) {
		t.Errorf("disjoint documents should score 0.0, got %v", sim)
	}
}

func TestPartialOverlapScoresBetween(t *testing.T) {
	docs := []string{"alquilar suv barato", "alquilar sedan caro"}
	vec := fitVectorizer(docs)

	sim := cosineSimilarity(
		vec.vectorize("alquilar suv barato"),
		vec.vectorize("alquilar sedan caro"),
	)
	if sim <= 0 || sim >= 1 {
		t.Errorf("partially overlapping documents should score in (0,1), got %v", sim)
	}
}

func TestOutOfVocabularyVectorIsZero(t *testing.T) {
	vec := fitVectorizer([]string{"alquilar suv"})
	v := vec.vectorize("conceptos totalmente distintos")
	for i, x := range v {
		if x != 0 {
			t.Errorf("component %d should be 0, got %v", i, x)
		}
	}
	if sim := cosineSimilarity(v, vec.vectorize("alquilar suv")); sim != 0 {
		t.Errorf("zero vector similarity should be 0, got %v", sim)
	}
}
