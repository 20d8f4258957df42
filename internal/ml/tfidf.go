package ml

import (
	"math"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
)

// tokenPattern matches runs of two or more Unicode word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and splits it into word tokens. Single-character
// words and punctuation are dropped.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(cases.Lower(language.Und).String(text), -1)
}

// SparseVector is a TF-IDF row. Indices are sorted and refer to the
// vocabulary of the Vectorizer that produced it.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no weight at all.
func (v SparseVector) IsZero() bool {
	return len(v.Values) == 0 || floats.Norm(v.Values, 2) == 0
}

// Vectorizer weights raw term counts by smoothed inverse document frequency
// and L2-normalizes every row:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// Fit builds the vocabulary and idf weights from documents.
func (v *Vectorizer) Fit(documents []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, term := range Tokenize(doc) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(documents))
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// VocabularySize returns the number of distinct fitted terms.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}

// Transform maps a document into the fitted space. Terms outside the
// vocabulary are ignored, so the result may be the zero vector.
func (v *Vectorizer) Transform(document string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range Tokenize(document) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.idf[idx])
	}

	if norm := floats.Norm(vec.Values, 2); norm > 0 {
		floats.Scale(1/norm, vec.Values)
	}
	return vec
}

// FitTransform fits on documents and returns their rows in order.
func (v *Vectorizer) FitTransform(documents []string) []SparseVector {
	v.Fit(documents)
	rows := make([]SparseVector, len(documents))
	for i, doc := range documents {
		rows[i] = v.Transform(doc)
	}
	return rows
}

// CosineSimilarity of two rows from the same vectorizer. Zero vectors have
// similarity 0 with everything.
func CosineSimilarity(a, b SparseVector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}

	// gather the overlapping coordinates, then let gonum do the arithmetic
	var left, right []float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			left = append(left, a.Values[i])
			right = append(right, b.Values[j])
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	if len(left) == 0 {
		return 0
	}

	sim := floats.Dot(left, right) / (floats.Norm(a.Values, 2) * floats.Norm(b.Values, 2))
	// rounding can push a self-similarity a hair above 1
	return math.Min(math.Max(sim, 0), 1)
}
