package keylist

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint32KeyRoundTrip(t *testing.T) {
	t.Parallel()
	for _, v := range []uint32{0, 1, 42, 1 << 31, math.MaxUint32} {
		assert.Equal(t, v, DecodeUint32Key(EncodeUint32Key(v)))
	}
}

func TestUint32KeyPreservesOrder(t *testing.T) {
	t.Parallel()
	vals := []uint32{5, 1, 1000, 0, math.MaxUint32, 2}
	encoded := make([][]byte, len(vals))
	for i, v := range vals {
		encoded[i] = EncodeUint32Key(v)
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	sortedVals := append([]uint32(nil), vals...)
	sort.Slice(sortedVals, func(i, j int) bool { return sortedVals[i] < sortedVals[j] })

	for i, buf := range encoded {
		assert.Equal(t, sortedVals[i], DecodeUint32Key(buf))
	}
}

func TestUint64KeyRoundTrip(t *testing.T) {
	t.Parallel()
	for _, v := range []uint64{0, 1, 1 << 40, math.MaxUint64} {
		assert.Equal(t, v, DecodeUint64Key(EncodeUint64Key(v)))
	}
}

func TestFloat64KeyRoundTrip(t *testing.T) {
	t.Parallel()
	for _, f := range []float64{0, -0.0, 1.5, -1.5, math.MaxFloat64, -math.MaxFloat64, 1e-300} {
		got := DecodeFloat64Key(EncodeFloat64Key(f))
		assert.Equal(t, f, got)
	}
}

func TestFloat64KeyPreservesOrder(t *testing.T) {
	t.Parallel()
	vals := []float64{-100.5, -1, -0.001, 0, 0.001, 1, 100.5, 1e10}
	encoded := make([][]byte, len(vals))
	for i, v := range vals {
		encoded[i] = EncodeFloat64Key(v)
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0, "expected %v < %v in encoded form", vals[i-1], vals[i])
	}
}
