package storage

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/skillsetz/careercraft/pkg/analysis"
)

// embeddingDim is the dimensionality of the feature-hashed job vectors.
// It must match the vec0 column declaration in the SQLite schema.
const embeddingDim = 64

// jobEmbedding hashes a job's title, skills, and tags into a fixed-size
// normalized vector. Feature hashing keeps similarity purely lexical
// but deterministic, so two postings sharing skills land close together
// without any model call.
func jobEmbedding(j *analysis.ParsedJob) []float32 {
	var b strings.Builder
	b.WriteString(j.Title)
	b.WriteByte(' ')
	b.WriteString(strings.Join(j.RequiredSkills, " "))
	b.WriteByte(' ')
	b.WriteString(strings.Join(j.PreferredSkills, " "))
	b.WriteByte(' ')
	b.WriteString(strings.Join(j.Tags, " "))

	return embedText(b.String())
}

func embedText(text string) []float32 {
	vec := make([]float32, embeddingDim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if len(tok) < 2 {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		idx := sum % embeddingDim
		// The bit above the index selects the sign, so collisions
		// partially cancel instead of always reinforcing.
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

// cosineDistance is 1 - dot product for normalized vectors; lower is
// more similar. Used by the memory backend; the SQLite backend ranks
// inside vec0 instead.
func cosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}
