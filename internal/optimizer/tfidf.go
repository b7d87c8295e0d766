package optimizer

import (
	"math"
	"strings"
	"unicode"
)

// tfidfVectorizer is a short-lived term-frequency/inverse-document-frequency
// model fit over one retrieval call's candidate set. Nothing here survives
// the call: the candidate window changes every call, so the vocabulary is
// refit each time rather than persisted.
type tfidfVectorizer struct {
	vocab map[string]int
	idf   []float64
}

// tokenize lower-cases the text and splits it into letter/digit runs,
// keeping tokens of at least two characters.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// fitVectorizer builds the vocabulary and smoothed inverse document
// frequencies over the given documents: idf = ln((1+n)/(1+df)) + 1.
func fitVectorizer(docs []string) *tfidfVectorizer {
	vocab := make(map[string]int)
	df := make(map[int]int)

	for _, doc := range docs {
		seen := make(map[int]bool)
		for _, tok := range tokenize(doc) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for idx := range idf {
		idf[idx] = math.Log((1+n)/(1+float64(df[idx]))) + 1
	}
	return &tfidfVectorizer{vocab: vocab, idf: idf}
}

// vectorize maps a document to its l2-normalized tf-idf vector. Out-of-
// vocabulary tokens are ignored; a document with no known tokens maps to the
// zero vector.
func (v *tfidfVectorizer) vectorize(doc string) []float64 {
	vec := make([]float64, len(v.vocab))
	for _, tok := range tokenize(doc) {
		if idx, ok := v.vocab[tok]; ok {
			vec[idx] += v.idf[idx]
		}
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// cosineSimilarity computes the cosine of two equal-length vectors, in
// [0,1] for non-negative inputs. Zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
