package services

// ratingAggregate is the running (sum, count) pair stored on a place.
type ratingAggregate struct {
	Sum   int64
	Count int64
}

func (a ratingAggregate) add(r int) ratingAggregate {
	return ratingAggregate{Sum: a.Sum + int64(r), Count: a.Count + 1}
}

func (a ratingAggregate) replace(old, r int) ratingAggregate {
	return ratingAggregate{Sum: a.Sum + int64(r-old), Count: a.Count}
}

func (a ratingAggregate) remove(old int) ratingAggregate {
	next := ratingAggregate{Sum: a.Sum - int64(old), Count: a.Count - 1}
	if next.Count <= 0 {
		return ratingAggregate{}
	}
	return next
}

func (a ratingAggregate) Average() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.Sum) / float64(a.Count)
}

func (a ratingAggregate) columns() map[string]interface{} {
	return map[string]interface{}{
		"rating_sum":     a.Sum,
		"total_ratings":  a.Count,
		"average_rating": a.Average(),
	}
}
