package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateMatchesMean(t *testing.T) {
	var agg ratingAggregate
	ratings := []int{5, 3, 4, 1, 2}
	for _, r := range ratings {
		agg = agg.add(r)
	}
	assert.Equal(t, int64(5), agg.Count)
	assert.InDelta(t, 3.0, agg.Average(), 1e-9)
}

func TestAggregateReplaceKeepsCount(t *testing.T) {
	agg := ratingAggregate{}.add(2).add(4)
	agg = agg.replace(2, 5)
	assert.Equal(t, ratingAggregate{Sum: 9, Count: 2}, agg)
	assert.InDelta(t, 4.5, agg.Average(), 1e-9)
}

func TestAggregateRemoveToEmpty(t *testing.T) {
	agg := ratingAggregate{}.add(3).add(5)
	agg = agg.remove(3)
	assert.InDelta(t, 5.0, agg.Average(), 1e-9)
	agg = agg.remove(5)
	assert.Equal(t, ratingAggregate{}, agg)
	assert.Equal(t, 0.0, agg.Average())
}

// Applying random upserts and deletes per user must always agree with a
// recount over the surviving ratings.
func TestAggregateAgreesWithRecount(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	current := map[int]int{}
	var agg ratingAggregate

	for i := 0; i < 500; i++ {
		user := rng.Intn(10)
		old, rated := current[user]
		if rated && rng.Intn(4) == 0 {
			agg = agg.remove(old)
			delete(current, user)
			continue
		}
		r := rng.Intn(5) + 1
		if rated {
			agg = agg.replace(old, r)
		} else {
			agg = agg.add(r)
		}
		current[user] = r

		var sum int64
		for _, v := range current {
			sum += int64(v)
		}
		assert.Equal(t, int64(len(current)), agg.Count)
		assert.Equal(t, sum, agg.Sum)
	}
}
