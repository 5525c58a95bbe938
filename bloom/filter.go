// Package bloom is the cheap membership pre-check in front of the crawl
// frontier's exact seen-set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter holds canonical page URLs. A negative Test is definitive; a
// positive one must be confirmed against an exact set.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter sizes the filter for expected URLs at the false positive rate fp.
func NewFilter(expected uint, fp float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(expected, fp)}
}

func (f *Filter) Add(pageURL string) {
	f.f.AddString(pageURL)
}

func (f *Filter) Test(pageURL string) bool {
	return f.f.TestString(pageURL)
}

// TestAndAdd adds pageURL and reports whether it may have been present.
func (f *Filter) TestAndAdd(pageURL string) bool {
	return f.f.TestAndAddString(pageURL)
}

// EstimatedCount approximates how many distinct URLs were added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
