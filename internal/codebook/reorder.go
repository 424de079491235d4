package codebook

// ReorderTables holds the inverse permutation pair between a palette's
// "old" (front-end clusterer) order and its "new" (transmission) order
// (spec §3, §4.5). The invariant old_to_new[new_to_old[i]] == i must hold
// for every valid instance.
type ReorderTables struct {
	OldToNew []int
	NewToOld []int
}

// Identity returns a no-op reorder table of the given size.
func Identity(n int) ReorderTables {
	o2n := make([]int, n)
	n2o := make([]int, n)
	for i := 0; i < n; i++ {
		o2n[i] = i
		n2o[i] = i
	}
	return ReorderTables{OldToNew: o2n, NewToOld: n2o}
}

// Valid reports whether the invariant old_to_new[new_to_old[i]] == i holds
// for every i.
func (r ReorderTables) Valid() bool {
	if len(r.OldToNew) != len(r.NewToOld) {
		return false
	}
	n := len(r.OldToNew)
	for i := 0; i < n; i++ {
		no := r.NewToOld[i]
		if no < 0 || no >= n {
			return false
		}
		if r.OldToNew[no] != i {
			return false
		}
	}
	return true
}

// ReorderEndpoints computes new_to_old for the endpoint palette using a
// greedy nearest-neighbor insertion heuristic that minimizes the summed
// |delta index| over the observed usage sequence (spec §4.5: "a greedy
// insertion heuristic rather than an exact solution, but must be
// deterministic for a given input, ties broken by lower index").
//
// usage is the sequence of old-order palette indices as referenced by the
// macroblock stream, in traversal order; it drives which entries are
// "adjacent" in the cost being minimized.
func ReorderEndpoints(paletteSize int, usage []int) ReorderTables {
	return greedyReorder(paletteSize, usage)
}

// ReorderSelectors computes new_to_old for the selector palette using the
// same greedy reorderer, followed by an intra-chunk (32-entries-at-a-time)
// Hamming-distance sort, with the chunk containing the most-frequent entry
// left in natural order (spec §4.5). globalCodebookMode skips reordering
// entirely when true.
func ReorderSelectors(paletteSize int, usage []int, entries []SelectorEntry, globalCodebookMode bool) ReorderTables {
	if globalCodebookMode {
		return Identity(paletteSize)
	}
	base := greedyReorder(paletteSize, usage)
	return hammingChunkReorder(base, entries)
}

// greedyReorder is the shared reordering heuristic used for both palettes:
// entries are visited in descending usage-frequency order (ties broken by
// earlier first appearance in usage, then by lower original index, for
// determinism) and each is greedily inserted at
// the position in the growing new-order sequence that minimizes the
// increase in summed |delta index| against its already-placed neighbors.
func greedyReorder(paletteSize int, usage []int) ReorderTables {
	if paletteSize == 0 {
		return ReorderTables{OldToNew: []int{}, NewToOld: []int{}}
	}
	freq := make([]int, paletteSize)
	firstSeen := make([]int, paletteSize)
	for i := range firstSeen {
		firstSeen[i] = -1
	}
	for pos, idx := range usage {
		if idx < 0 || idx >= paletteSize {
			continue
		}
		freq[idx]++
		if firstSeen[idx] == -1 {
			firstSeen[idx] = pos
		}
	}

	order := make([]int, paletteSize)
	for i := range order {
		order[i] = i
	}
	// Sort candidates by descending frequency, then by first-seen position,
	// then by original index, all deterministic tie-breaks.
	sortInts(order, func(a, b int) bool {
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		fa, fb := firstSeen[a], firstSeen[b]
		if fa == -1 {
			fa = 1 << 30
		}
		if fb == -1 {
			fb = 1 << 30
		}
		if fa != fb {
			return fa < fb
		}
		return a < b
	})

	newToOld := make([]int, 0, paletteSize)
	for _, cand := range order {
		if len(newToOld) == 0 {
			newToOld = append(newToOld, cand)
			continue
		}
		bestPos, bestCost := 0, int(^uint(0)>>1)
		for pos := 0; pos <= len(newToOld); pos++ {
			cost := insertionCost(newToOld, pos, cand)
			if cost < bestCost {
				bestCost = cost
				bestPos = pos
			}
		}
		newToOld = append(newToOld, 0)
		copy(newToOld[bestPos+1:], newToOld[bestPos:len(newToOld)-1])
		newToOld[bestPos] = cand
	}

	oldToNew := make([]int, paletteSize)
	for newIdx, oldIdx := range newToOld {
		oldToNew[oldIdx] = newIdx
	}
	return ReorderTables{OldToNew: oldToNew, NewToOld: newToOld}
}

// insertionCost estimates the |delta| cost of inserting cand at pos within
// the already-placed sequence seq, relative to its immediate neighbors.
func insertionCost(seq []int, pos, cand int) int {
	cost := 0
	if pos > 0 {
		cost += absInt(seq[pos-1] - cand)
	}
	if pos < len(seq) {
		cost += absInt(seq[pos] - cand)
	}
	return cost
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// hammingChunkReorder re-sorts runs of 32 consecutive new-order entries by
// Hamming distance between adjacent packed selector payloads, leaving the
// chunk containing the most-frequent entry (+/-16 either side) in its
// natural (greedy-reorder) order, per spec §4.5.
func hammingChunkReorder(base ReorderTables, entries []SelectorEntry) ReorderTables {
	n := len(base.NewToOld)
	if n == 0 {
		return base
	}
	const chunkSize = 32

	mostFreqChunk := mostFrequentEntryChunk(base.NewToOld, entries)

	newToOld := append([]int(nil), base.NewToOld...)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		if chunkContains(start, end, mostFreqChunk) {
			continue
		}
		chunk := newToOld[start:end]
		sortByHamming(chunk, entries)
	}

	oldToNew := make([]int, n)
	for newIdx, oldIdx := range newToOld {
		oldToNew[oldIdx] = newIdx
	}
	return ReorderTables{OldToNew: oldToNew, NewToOld: newToOld}
}

func chunkContains(start, end, idx int) bool {
	return idx >= start-16 && idx < end+16
}

func mostFrequentEntryChunk(newToOld []int, entries []SelectorEntry) int {
	if len(newToOld) == 0 {
		return 0
	}
	best, bestCount := 0, -1
	counts := map[uint32]int{}
	for pos, oldIdx := range newToOld {
		if oldIdx < 0 || oldIdx >= len(entries) {
			continue
		}
		key := entries[oldIdx].Pack()
		counts[key]++
		if counts[key] > bestCount {
			bestCount = counts[key]
			best = pos
		}
	}
	return best
}

func sortByHamming(chunk []int, entries []SelectorEntry) {
	if len(chunk) < 2 {
		return
	}
	// Greedy nearest-neighbour chain: each position takes the remaining
	// entry closest in Hamming distance to the entry placed before it.
	for i := 1; i < len(chunk); i++ {
		best, bestDist := i, -1
		for j := i; j < len(chunk); j++ {
			a, b := chunk[i-1], chunk[j]
			if a >= len(entries) || b >= len(entries) {
				continue
			}
			if d := hammingWeight(entries[a].Pack() ^ entries[b].Pack()); bestDist < 0 || d < bestDist {
				best, bestDist = j, d
			}
		}
		chunk[i], chunk[best] = chunk[best], chunk[i]
	}
}

func hammingWeight(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// sortInts is a small deterministic insertion sort (stable, no external
// dependency needed for alphabets this small: palette sizes up to
// MaxPaletteSize, but chunks are capped at 32 and the outer greedy loop is
// O(n^2) anyway).
func sortInts(s []int, less func(a, b int) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
