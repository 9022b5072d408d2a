package corpus

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/kailas-cloud/djia-rag/internal/domain"
)

// Reserved hash field names; everything else is treated as document metadata.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domain.Document) map[string]string {
	m := make(map[string]string, 2+len(doc.Tags)+len(doc.Numerics))
	m[fieldContent] = doc.Text
	m[fieldVector] = vectorToBytes(doc.Vector)
	for k, v := range doc.Tags {
		m[k] = v
	}
	for k, v := range doc.Numerics {
		m[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return m
}

// parseHit converts a flat hash map back into a domain Hit. Numeric-looking
// values land in Numerics, everything else in Tags.
func parseHit(id string, m map[string]string) domain.Hit {
	hit := domain.Hit{
		ID:       id,
		Tags:     make(map[string]string),
		Numerics: make(map[string]float64),
	}

	for k, v := range m {
		switch k {
		case fieldContent:
			hit.Text = v
		case fieldVector:
			// vector payloads are not needed on the way out
		default:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				hit.Numerics[k] = f
			} else {
				hit.Tags[k] = v
			}
		}
	}
	return hit
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
