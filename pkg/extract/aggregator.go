package extract

// Aggregator is an insertion-ordered set of class names.
//
// An Aggregator belongs to one extraction job and is not safe for concurrent
// use; merge per-file aggregators after the workers finish.
type Aggregator struct {
	items []string
	index map[string]struct{}
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[string]struct{})}
}

// Add records class if it has not been seen. It reports whether the class
// was new.
func (a *Aggregator) Add(class string) bool {
	if _, ok := a.index[class]; ok {
		return false
	}
	a.index[class] = struct{}{}
	a.items = append(a.items, class)
	return true
}

// AddAll records every class in order.
func (a *Aggregator) AddAll(classes []string) {
	for _, c := range classes {
		a.Add(c)
	}
}

// Merge appends the classes of other that are not already present.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	a.AddAll(other.items)
}

// Contains reports whether class was added.
func (a *Aggregator) Contains(class string) bool {
	_, ok := a.index[class]
	return ok
}

// Len returns the number of distinct classes.
func (a *Aggregator) Len() int {
	return len(a.items)
}

// Items returns a copy of the classes in first-occurrence order.
func (a *Aggregator) Items() []string {
	return append([]string(nil), a.items...)
}
