package filter

// Source is the random-access view of the candidates a pass evaluates
type Source[E any] interface {
	// Size returns the number of candidates
	Size() int
	// At returns the candidate at the given physical index
	At(index int) E
}

// Chain is an immutable, ordered conjunction of filters. A stage is only
// presented the candidates accepted by every stage before it.
type Chain[E any] struct {
	stages []Filter[E]
}

// NewChain creates a chain from the given filters, skipping nil ones
func NewChain[E any](filters ...Filter[E]) Chain[E] {
	var c Chain[E]
	for _, f := range filters {
		c = c.Append(f)
	}
	return c
}

// Append returns a new chain with f added as the last stage. The receiver is
// left untouched.
func (c Chain[E]) Append(f Filter[E]) Chain[E] {
	if f == nil {
		return c
	}
	stages := make([]Filter[E], len(c.stages), len(c.stages)+1)
	copy(stages, c.stages)
	return Chain[E]{stages: append(stages, f)}
}

// Concat returns a new chain running the stages of c followed by those of
// other
func (c Chain[E]) Concat(other Chain[E]) Chain[E] {
	stages := make([]Filter[E], 0, len(c.stages)+len(other.stages))
	stages = append(stages, c.stages...)
	return Chain[E]{stages: append(stages, other.stages...)}
}

// Len returns the number of stages
func (c Chain[E]) Len() int {
	return len(c.stages)
}

// Head returns the first stage, or nil when the chain is empty
func (c Chain[E]) Head() Filter[E] {
	if len(c.stages) == 0 {
		return nil
	}
	return c.stages[0]
}

// IsEmpty reports whether the chain accepts every element
func (c Chain[E]) IsEmpty() bool {
	return len(c.stages) == 0
}

// Begin starts a new pass over src. Advanced stages are prepared first: for
// each of them a pre-pass counts, in traversal order, the candidates accepted
// by the stages that precede it.
func (c Chain[E]) Begin(src Source[E], reverse bool) *Pass[E] {
	stages := make([]Filter[E], len(c.stages))
	copy(stages, c.stages)

	for i, stage := range stages {
		p, ok := stage.(Preparer[E])
		if !ok {
			continue
		}
		upstream := &Pass[E]{stages: stages[:i], counts: make([]int, i)}
		stages[i] = p.Prepare(upstream.count(src, reverse))
	}

	return &Pass[E]{stages: stages, counts: make([]int, len(stages))}
}

// Pass holds the counters of a single traversal of a chain
type Pass[E any] struct {
	stages []Filter[E]
	counts []int
}

// Test evaluates the candidate against every stage in order, stopping at the
// first rejection. Counters of the stages reached are advanced.
func (p *Pass[E]) Test(element E, index int) bool {
	for i, stage := range p.stages {
		count := p.counts[i]
		p.counts[i]++
		if !stage.Matches(element, count, index) {
			return false
		}
	}
	return true
}

func (p *Pass[E]) count(src Source[E], reverse bool) int {
	n := src.Size()
	total := 0
	if reverse {
		for i := n - 1; i >= 0; i-- {
			if p.Test(src.At(i), i) {
				total++
			}
		}
	} else {
		for i := 0; i < n; i++ {
			if p.Test(src.At(i), i) {
				total++
			}
		}
	}
	return total
}
