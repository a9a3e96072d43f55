package scheduler

import (
	"container/heap"

	"agentcoord.dev/task"
)

// queueItem is one entry in the priority queue: a task plus the scheduling
// key computed for it at enqueue time. Comparing items directly on
// (prefixLen desc, priority desc, seq asc) is equivalent to the
// specification's lexicographic-ascending (-prefixLen, -priority, seq)
// tuple, without needing signed-negation bookkeeping.
type queueItem struct {
	prefixLen int
	priority  int
	seq       int64
	task      *task.Task
	index     int
}

// taskHeap implements container/heap.Interface, giving Go's heap package
// the same role Python's heapq-backed queue.PriorityQueue plays in the
// reference scheduler.
type taskHeap []*queueItem

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.prefixLen != b.prefixLen {
		return a.prefixLen > b.prefixLen
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*taskHeap)(nil)
