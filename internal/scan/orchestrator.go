package scan

import (
	"sort"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/shirou/magicscan/internal/rule"
)

// Options controls a single scan pass (§4.F, §5, §6).
type Options struct {
	ShowInvalid bool
	Parallel    bool
	MaxOffset   int64 // 0 means no cap
}

// Scan locates every rule match in buf (§4.F "Scan orchestration"). rules
// must already be sorted by descending confidence, the order Parser
// produces. The returned slice is sorted by ascending offset.
func Scan(rules []*rule.Rule, buf []byte, opts Options) []Result {
	idx := Build(buf, rules)

	var flat []Result
	switch {
	case opts.Parallel && !opts.ShowInvalid:
		// Confidence-priority dedup happens inside the goroutines
		// themselves, against a map shared by every one of them.
		flat = scanParallelDedup(rules, idx, buf, opts)
	case opts.Parallel:
		// show_invalid keeps every candidate, so there is nothing to
		// dedup; just flatten each rule's independently computed slice.
		for _, rs := range scanParallel(rules, idx, buf, opts) {
			flat = append(flat, rs...)
		}
	case opts.ShowInvalid:
		for _, r := range rules {
			flat = append(flat, evaluateHits(r, idx.Hits(r), buf, opts)...)
		}
	default:
		flat = scanSerialDedup(rules, idx, buf, opts)
	}

	sort.SliceStable(flat, func(i, j int) bool { return flat[i].Offset < flat[j].Offset })
	return flat
}

// scanSerialDedup runs rule evaluation one rule at a time, so the
// offset->winner bookkeeping never sees concurrent access; a builtin map
// is enough here (§5 confidence-priority dedup).
func scanSerialDedup(rules []*rule.Rule, idx *Index, buf []byte, opts Options) []Result {
	seen := make(map[int64]bool, len(rules))
	var flat []Result
	for _, r := range rules {
		for _, res := range evaluateHits(r, idx.Hits(r), buf, opts) {
			if seen[res.Offset] {
				continue
			}
			seen[res.Offset] = true
			flat = append(flat, res)
		}
	}
	return flat
}

func scanParallel(rules []*rule.Rule, idx *Index, buf []byte, opts Options) [][]Result {
	out := make([][]Result, len(rules))
	var wg sync.WaitGroup
	for i, r := range rules {
		wg.Add(1)
		go func(i int, r *rule.Rule) {
			defer wg.Done()
			out[i] = evaluateHits(r, idx.Hits(r), buf, opts)
		}(i, r)
	}
	wg.Wait()
	return out
}

// claim pairs a candidate result with the priority (confidence-sorted
// rule index, lower wins) of the rule that produced it.
type claim struct {
	idx int
	res Result
}

// scanParallelDedup runs every rule's evaluation in its own goroutine and
// has each one write its candidates directly into a map shared across all
// of them, so the dedup happens while the goroutines are still running
// instead of after they have joined (§5). Each Get-then-Set is done under
// a mutex, and a goroutine only overwrites an offset's current claim when
// its rule has a lower index (earlier in confidence order) than whatever
// is already there.
func scanParallelDedup(rules []*rule.Rule, idx *Index, buf []byte, opts Options) []Result {
	won := haxmap.New[int64, claim]()
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i, r := range rules {
		wg.Add(1)
		go func(i int, r *rule.Rule) {
			defer wg.Done()
			for _, res := range evaluateHits(r, idx.Hits(r), buf, opts) {
				mu.Lock()
				if existing, ok := won.Get(res.Offset); !ok || i < existing.idx {
					won.Set(res.Offset, claim{idx: i, res: res})
				}
				mu.Unlock()
			}
		}(i, r)
	}
	wg.Wait()

	flat := make([]Result, 0, won.Len())
	won.ForEach(func(_ int64, c claim) bool {
		flat = append(flat, c.res)
		return true
	})
	return flat
}

// zeroReader backs the bias calculation below. The bias is computed
// without reading the buffer (the position being solved for is exactly
// what an indirect read would depend on), so an indirect read in a rule's
// first-line offset resolves to 0 here.
func zeroReader(int64, byte) int64 { return 0 }

func evaluateHits(r *rule.Rule, hits []int, buf []byte, opts Options) []Result {
	// §4.C: a prescreen hit at buffer position p corresponds to candidate
	// offset O = p - rule.first_line.offset.
	bias := r.Offset.Resolve(0, zeroReader)

	var results []Result
	for _, p := range hits {
		off := int64(p) - bias
		if off < 0 {
			continue
		}
		if opts.MaxOffset > 0 && off > opts.MaxOffset {
			continue
		}
		res, ok := evaluate(r, buf, off, opts.ShowInvalid)
		if !ok {
			continue
		}
		results = append(results, res)
	}
	return results
}
