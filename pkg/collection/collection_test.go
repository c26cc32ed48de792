package collection_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/multidelivery/painel/pkg/collection"
)

func TestFilterNeverNil(t *testing.T) {
	out := collection.Filter([]int{1, 2, 3}, func(n int) bool { return n > 5 })
	assert.NotNil(t, out)
	assert.Empty(t, out)

	assert.Equal(t, []int{2}, collection.Filter([]int{1, 2, 3}, func(n int) bool { return n == 2 }))
}

func TestMapAndUnique(t *testing.T) {
	strs := collection.Map([]int{3, 1, 3, 2, 1}, strconv.Itoa)
	assert.Equal(t, []string{"3", "1", "2"}, collection.Unique(strs))
}

func TestReduceSumsTotals(t *testing.T) {
	totais := []float64{45.9, 12, 0.1}
	sum := collection.Reduce(totais, 0.0, func(acc, v float64) float64 { return acc + v })
	assert.InDelta(t, 58.0, sum, 1e-9)

	assert.Equal(t, "base", collection.Reduce([]int{}, "base", func(acc string, _ int) string { return acc + "!" }))
}
