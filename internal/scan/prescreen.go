package scan

import "github.com/shirou/magicscan/internal/rule"

// Index is a prescreen index (§3 "Prescreen pattern", §4.C): one pass
// over the buffer that buckets every literal-pattern hit by the rule(s)
// whose pattern starts with that byte, instead of re-scanning the buffer
// once per rule.
type Index struct {
	hits map[int][]int // rule ID -> ascending buffer offsets where its pattern occurs
}

// Build scans buf once and records, for every rule, every position where
// its prescreen pattern occurs, in ascending order.
func Build(buf []byte, rules []*rule.Rule) *Index {
	byFirstByte := make(map[byte][]*rule.Rule)
	for _, r := range rules {
		if len(r.PrescreenPattern) == 0 {
			continue
		}
		b := r.PrescreenPattern[0]
		byFirstByte[b] = append(byFirstByte[b], r)
	}

	idx := &Index{hits: make(map[int][]int)}
	for i := range buf {
		candidates := byFirstByte[buf[i]]
		for _, r := range candidates {
			p := r.PrescreenPattern
			if i+len(p) > len(buf) {
				continue
			}
			if bytesEqual(buf[i:i+len(p)], p) {
				idx.hits[r.ID] = append(idx.hits[r.ID], i)
			}
		}
	}
	return idx
}

// Hits returns the ascending prescreen positions recorded for r.
func (idx *Index) Hits(r *rule.Rule) []int { return idx.hits[r.ID] }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
