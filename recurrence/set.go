package recurrence

import (
	"container/heap"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/samber/mo"
)

// Set combines inclusion rules and dates, minus exclusion rules and dates,
// into one ascending sequence. Exclusion matches exact identity: wall
// reading, zone and fold.
//
// Queries may run concurrently. Mutations must not run concurrently with
// anything else on the same Set.
type Set struct {
	rules   []*Rule
	exrules []*Rule
	dates   map[civil.Key]civil.Time
	exdates map[civil.Key]civil.Time

	config Config
	cache  *Cache
}

// NewSet returns an empty set configured with DefaultConfig unless opts say
// otherwise.
func NewSet(opts ...SetOption) *Set {
	s := &Set{
		dates:   make(map[civil.Key]civil.Time),
		exdates: make(map[civil.Key]civil.Time),
		config:  DefaultConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.CacheEnabled {
		s.cache = NewCache(s.config.CacheConfig)
	}
	return s
}

// Include adds an inclusion rule.
func (s *Set) Include(r *Rule) {
	s.rules = append(s.rules, r)
	s.changed()
}

// Exclude adds an exclusion rule.
func (s *Set) Exclude(r *Rule) {
	s.exrules = append(s.exrules, r)
	s.changed()
}

// AddDate adds an explicit occurrence.
func (s *Set) AddDate(t civil.Time) {
	s.dates[t.Key()] = t
	s.changed()
}

// RemoveDate removes an explicit occurrence added by AddDate and reports
// whether it was present. It does not exclude occurrences of rules.
func (s *Set) RemoveDate(t civil.Time) bool {
	return s.remove(s.dates, t)
}

// AddExDate excludes t from the set.
func (s *Set) AddExDate(t civil.Time) {
	s.exdates[t.Key()] = t
	s.changed()
}

// RemoveExDate undoes AddExDate and reports whether t was excluded.
func (s *Set) RemoveExDate(t civil.Time) bool {
	return s.remove(s.exdates, t)
}

func (s *Set) remove(m map[civil.Key]civil.Time, t civil.Time) bool {
	if _, ok := m[t.Key()]; !ok {
		return false
	}
	delete(m, t.Key())
	s.changed()
	return true
}

func (s *Set) changed() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Rules returns the inclusion rules in the order they were added.
func (s *Set) Rules() []*Rule { return slices.Clone(s.rules) }

// ExRules returns the exclusion rules in the order they were added.
func (s *Set) ExRules() []*Rule { return slices.Clone(s.exrules) }

// Dates returns the explicit occurrences in ascending order.
func (s *Set) Dates() []civil.Time { return sortedTimes(s.dates) }

// ExDates returns the explicit exclusions in ascending order.
func (s *Set) ExDates() []civil.Time { return sortedTimes(s.exdates) }

// Close releases the result cache.
func (s *Set) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// CacheStats reports the result cache; it is zero when caching is off.
func (s *Set) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// All returns the occurrences in ascending order. The rules and dates are
// read when iteration starts.
func (s *Set) All() iter.Seq[civil.Time] {
	return func(yield func(civil.Time) bool) {
		st := s.stream(mo.None[civil.Time]())
		for {
			t, ok := st.next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Between returns the occurrences in [from, to).
func (s *Set) Between(from, to civil.Time) []civil.Time {
	if s.cache != nil {
		if out, ok := s.cache.Get(from, to); ok {
			return out
		}
	}

	var out []civil.Time
	st := s.stream(mo.Some(from))
	for {
		t, ok := st.next()
		if !ok || t.Compare(to) >= 0 {
			break
		}
		if t.Compare(from) >= 0 {
			out = append(out, t)
		}
	}

	if s.cache != nil {
		s.cache.Put(from, to, out)
	}
	return out
}

// After returns the first occurrence after t, or at t when inclusive.
func (s *Set) After(t civil.Time, inclusive bool) mo.Option[civil.Time] {
	st := s.stream(mo.Some(t))
	for {
		o, ok := st.next()
		if !ok {
			return mo.None[civil.Time]()
		}
		if cmp := o.Compare(t); cmp > 0 || inclusive && cmp == 0 {
			return mo.Some(o)
		}
	}
}

// Before returns the last occurrence before t, or at t when inclusive.
func (s *Set) Before(t civil.Time, inclusive bool) mo.Option[civil.Time] {
	dates := s.Dates()
	for {
		best := mo.None[civil.Time]()
		better := func(o civil.Time) {
			if b, ok := best.Get(); !ok || o.After(b) {
				best = mo.Some(o)
			}
		}
		for _, r := range s.rules {
			if o, ok := r.Before(t, inclusive).Get(); ok {
				better(o)
			}
		}
		for i := len(dates) - 1; i >= 0; i-- {
			if cmp := dates[i].Compare(t); cmp < 0 || inclusive && cmp == 0 {
				better(dates[i])
				break
			}
		}

		b, ok := best.Get()
		if !ok || !s.excluded(b) {
			return best
		}
		t, inclusive = b, false
	}
}

// HasOccurrenceInRange reports whether an occurrence lasting d overlaps
// [from, to). A zero d matches occurrences at from.
func (s *Set) HasOccurrenceInRange(from, to civil.Time, d time.Duration) bool {
	o, ok := s.After(civil.AbsoluteAdd(from, -d), d == 0).Get()
	return ok && o.Before(to)
}

// excluded checks a single instant against the exclusions.
func (s *Set) excluded(t civil.Time) bool {
	if _, ok := s.exdates[t.Key()]; ok {
		return true
	}
	for _, r := range s.exrules {
		if o, ok := r.After(t, true).Get(); ok && o.Equal(t) {
			return true
		}
	}
	return false
}

// stream merges the current rules and dates. With from set, rule cursors
// start near it instead of at the rule start.
func (s *Set) stream(from mo.Option[civil.Time]) *setStream {
	open := func(r *Rule) source {
		if f, ok := from.Get(); ok {
			return r.cursor(r.seek(f))
		}
		return r.cursor(0)
	}

	inc := make([]source, 0, len(s.rules)+1)
	for _, r := range s.rules {
		inc = append(inc, open(r))
	}
	inc = append(inc, &sliceSource{ts: s.Dates()})

	exc := make([]source, 0, len(s.exrules))
	for _, r := range s.exrules {
		exc = append(exc, open(r))
	}

	return &setStream{
		inc:     newMerger(inc),
		exc:     newMerger(exc),
		exdates: maps.Clone(s.exdates),
	}
}

type setStream struct {
	inc, exc *merger
	exdates  map[civil.Key]civil.Time
}

func (st *setStream) next() (civil.Time, bool) {
	for {
		t, ok := st.inc.next()
		if !ok {
			return civil.Time{}, false
		}
		if _, ok := st.exdates[t.Key()]; ok {
			continue
		}
		if st.exc.skipTo(t) {
			continue
		}
		return t, true
	}
}

// source yields times in ascending order.
type source interface {
	next() (civil.Time, bool)
}

type sliceSource struct {
	ts []civil.Time
}

func (s *sliceSource) next() (civil.Time, bool) {
	if len(s.ts) == 0 {
		return civil.Time{}, false
	}
	t := s.ts[0]
	s.ts = s.ts[1:]
	return t, true
}

// merger is a k-way merge of sources that drops repeats.
type merger struct {
	h       mergeHeap
	last    civil.Time
	hasLast bool
}

type mergeItem struct {
	t   civil.Time
	src source
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int           { return len(h) }
func (h mergeHeap) Less(i, j int) bool { return h[i].t.Compare(h[j].t) < 0 }
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

func newMerger(srcs []source) *merger {
	m := &merger{}
	for _, src := range srcs {
		if t, ok := src.next(); ok {
			m.h = append(m.h, mergeItem{t, src})
		}
	}
	heap.Init(&m.h)
	return m
}

func (m *merger) next() (civil.Time, bool) {
	for m.h.Len() > 0 {
		top := m.h[0]
		if t, ok := top.src.next(); ok {
			m.h[0].t = t
			heap.Fix(&m.h, 0)
		} else {
			heap.Pop(&m.h)
		}
		if m.hasLast && top.t.Equal(m.last) {
			continue
		}
		m.last, m.hasLast = top.t, true
		return top.t, true
	}
	return civil.Time{}, false
}

// skipTo drops everything ordered before t and reports whether t itself is
// next.
func (m *merger) skipTo(t civil.Time) bool {
	for m.h.Len() > 0 {
		head := m.h[0].t
		if head.Compare(t) >= 0 {
			return head.Equal(t)
		}
		m.next()
	}
	return false
}

func sortedTimes(m map[civil.Key]civil.Time) []civil.Time {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, civil.Time.Compare)
	return out
}
