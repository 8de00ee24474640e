package txstage

// Aggregator is the minimal consumer boundary a merged stream needs to
// support the SUM/COUNT/predicate scenarios in spec §8 without a full
// query parser and executor, which stays out of scope (SPEC_FULL.md §12,
// grounded on the original engine's uqi.cpp aggregation unit tests).
type Aggregator interface {
	// Visit is called once per (key, record) pair; the return value is
	// unused by Run but lets a Predicate wrapper report whether it passed
	// the pair through to an inner aggregator.
	Visit(key, record []byte) bool
	// Result returns the aggregate's value after every pair has been
	// visited.
	Result() int64
}

// SumAggregator sums a caller-supplied projection of each visited key.
type SumAggregator struct {
	Project func(key []byte) int64
	total   int64
}

func (a *SumAggregator) Visit(key, _ []byte) bool {
	a.total += a.Project(key)
	return true
}

func (a *SumAggregator) Result() int64 { return a.total }

// CountAggregator counts every visited pair.
type CountAggregator struct {
	count int64
}

func (a *CountAggregator) Visit(_, _ []byte) bool {
	a.count++
	return true
}

func (a *CountAggregator) Result() int64 { return a.count }

// PredicateAggregator forwards a pair to Inner only when Predicate
// accepts it.
type PredicateAggregator struct {
	Predicate func(key []byte) bool
	Inner     Aggregator
}

func (a *PredicateAggregator) Visit(key, record []byte) bool {
	if !a.Predicate(key) {
		return false
	}
	return a.Inner.Visit(key, record)
}

func (a *PredicateAggregator) Result() int64 { return a.Inner.Result() }

// Run drains reader, feeding every pair to agg, and returns agg.Result().
func Run(reader *MergeReader, agg Aggregator) (int64, error) {
	for {
		key, record, ok, err := reader.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		agg.Visit(key, record)
	}
	return agg.Result(), nil
}
