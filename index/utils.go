package index

import "github.com/hupe1980/recgo/internal/queue"

// MergeTopN merges ranked lists (best first) into a single list of at most k
// items, ordered by queue.Better. Rows appearing in more than one list are
// kept once.
func MergeTopN(k int, lists ...[]queue.Item) []queue.Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]queue.Item, 0, min(k, total))
	pos := make([]int, len(lists))
	seen := make(map[uint32]struct{}, min(k, total))

	for len(out) < k {
		best := -1
		for i, l := range lists {
			if pos[i] >= len(l) {
				continue
			}
			if best < 0 || queue.Better(l[pos[i]], lists[best][pos[best]]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		it := lists[best][pos[best]]
		pos[best]++
		if _, dup := seen[uint32(it.Row)]; dup {
			continue
		}
		seen[uint32(it.Row)] = struct{}{}
		out = append(out, it)
	}
	return out
}
