package embed

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/mnemosyne/internal/text"
)

// 32-bit FNV-1a parameters. The hash is pinned here rather than taken from
// hash/fnv because stored vectors must stay bit-identical across releases.
const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

const minEmbedTokenLen = 2

func hash32(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// TextDeterministic produces a reproducible, model-free embedding: each token
// contributes a signed, length-scaled weight at a hashed slot, adjacent-token
// bigrams contribute half-weight slots, and the result is L2-normalized.
// Identical (input, dimensions) always yields a bit-identical vector. Text
// with no qualifying tokens falls back to a single unit spike derived from
// the raw text hash.
func TextDeterministic(input string, dimensions int) []float64 {
	if dimensions <= 0 {
		return []float64{}
	}

	vec := make([]float64, dimensions)

	tokens := text.Tokenize(input, minEmbedTokenLen)
	if len(tokens) == 0 {
		vec[hash32(input)%uint32(dimensions)] = 1
		return vec
	}

	for i, tok := range tokens {
		h := hash32(tok)
		weight := 1 + math.Min(float64(len([]rune(tok))), 12)/12
		if h%2 != 0 {
			weight = -weight
		}
		vec[h%uint32(dimensions)] += weight

		if i > 0 {
			bh := hash32(tokens[i-1] + "_" + tok)
			w := 0.5
			if bh%2 != 0 {
				w = -0.5
			}
			vec[bh%uint32(dimensions)] += w
		}
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if mag := math.Sqrt(sumSq); mag > 0 {
		for i := range vec {
			vec[i] /= mag
		}
	}

	return vec
}

// Serialize renders a vector as the storage literal accepted by the vector
// store, e.g. "[0.125,-0.5,0]". Components are rounded to 6 decimal places
// so the literal round-trips within 1e-6.
func Serialize(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type deterministicEmbedder struct{}

// NewDeterministic returns an Embedder backed by TextDeterministic, for
// deployments with no embedding provider configured and for CI.
func NewDeterministic() Embedder {
	return deterministicEmbedder{}
}

func (deterministicEmbedder) Embed(_ context.Context, input string, dimensions int) ([]float64, error) {
	return TextDeterministic(input, dimensions), nil
}
