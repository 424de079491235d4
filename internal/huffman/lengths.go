package huffman

import (
	"container/heap"
	"errors"
)

// ErrNoSymbols is returned when every frequency is zero.
var ErrNoSymbols = errors.New("huffman: no symbols with nonzero frequency")

// BuildLengthsFromFrequencies derives canonical, length-limited code
// lengths for the given per-symbol frequencies, suitable for passing to
// Build or Serialize. Symbols with zero frequency are left unused (length
// 0). It is the encode-side counterpart used by callers (e.g.
// internal/codebook) that only have frequency counts, not a finished
// table, when they need to choose lengths before serializing.
func BuildLengthsFromFrequencies(freq []int) ([]int, error) {
	return lengthLimitedLengths(freq, MaxCodeLength)
}

// lengthLimitedLengths derives a canonical, length-limited (<=maxLen) set
// of Huffman code lengths from symbol frequencies, via a standard
// binary-heap Huffman tree build followed by Kraft-inequality length
// limiting. Symbols with zero frequency get length 0 (unused).
func lengthLimitedLengths(freq []int, maxLen int) ([]int, error) {
	n := len(freq)
	lengths := make([]int, n)

	type node struct {
		weight      int
		sym         int // -1 for internal nodes
		left, right *node
	}

	pq := &nodeHeap{}
	heap.Init(pq)
	count := 0
	for sym, f := range freq {
		if f > 0 {
			heap.Push(pq, &huffNode{weight: f, sym: sym, order: count})
			count++
		}
	}
	if pq.Len() == 0 {
		return nil, ErrNoSymbols
	}
	if pq.Len() == 1 {
		only := heap.Pop(pq).(*huffNode)
		lengths[only.sym] = 1
		return lengths, nil
	}

	for pq.Len() > 1 {
		a := heap.Pop(pq).(*huffNode)
		b := heap.Pop(pq).(*huffNode)
		parent := &huffNode{weight: a.weight + b.weight, sym: -1, left: a, right: b, order: count}
		count++
		heap.Push(pq, parent)
	}
	root := heap.Pop(pq).(*huffNode)

	var walk func(nd *huffNode, depth int)
	walk = func(nd *huffNode, depth int) {
		if nd == nil {
			return
		}
		if nd.sym >= 0 {
			d := depth
			if d == 0 {
				d = 1
			}
			lengths[nd.sym] = d
			return
		}
		walk(nd.left, depth+1)
		walk(nd.right, depth+1)
	}
	walk(root, 0)

	limitLengths(lengths, maxLen)
	return lengths, nil
}

// limitLengths enforces a maximum code length in place, redistributing
// excess Kraft budget from over-length codes to the shortest available
// codes (the classic "overflow" length-limiting technique).
func limitLengths(lengths []int, maxLen int) {
	over := false
	for _, l := range lengths {
		if l > maxLen {
			over = true
			break
		}
	}
	if !over {
		return
	}
	for i, l := range lengths {
		if l > maxLen {
			lengths[i] = maxLen
		}
	}
	for iter := 0; iter < 4096; iter++ {
		var kraft uint64
		const scale = uint64(1) << 32
		unit := scale >> uint(maxLen)
		for _, l := range lengths {
			if l == 0 {
				continue
			}
			kraft += scale >> uint(l)
		}
		full := scale
		if kraft <= full {
			break
		}
		// Find the longest code and lengthen the (artificial) deficit by
		// borrowing from it: increase the shortest non-max code by 1 and
		// decrease the longest by 1, which keeps Kraft's sum moving toward
		// equality without ever exceeding maxLen.
		longestIdx, shortestIdx := -1, -1
		longest, shortest := 0, maxLen+1
		for i, l := range lengths {
			if l == 0 {
				continue
			}
			if l > longest {
				longest = l
				longestIdx = i
			}
			if l < shortest {
				shortest = l
				shortestIdx = i
			}
		}
		if longestIdx == -1 || shortestIdx == -1 || longest <= 1 {
			break
		}
		lengths[longestIdx]--
		lengths[shortestIdx]++
		if lengths[shortestIdx] > maxLen {
			lengths[shortestIdx] = maxLen
		}
		_ = unit
	}
}

type huffNode struct {
	weight      int
	sym         int
	order       int
	left, right *huffNode
}

// nodeHeap is a min-heap ordered by (weight, insertion order) to keep the
// build deterministic for equal-weight symbols.
type nodeHeap []*huffNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].order < h[j].order
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*huffNode))
}
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
