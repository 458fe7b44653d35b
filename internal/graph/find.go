package graph

import (
	"slices"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
)

type taskFilter struct {
	kinds    []curriculum.MaterialKind
	maxHours float64
}

func (f taskFilter) first(ms []*Material) *Material {
	for _, m := range ms {
		if m.Completed || !slices.Contains(f.kinds, m.Kind) {
			continue
		}
		if m.Kind == curriculum.KindMockExam && m.Required > f.maxHours+completionEpsilon {
			continue
		}
		return m
	}
	return nil
}

type frame struct {
	node *Node
	next int
}

// FindNextTask returns the next material to study under exam, starting at
// subject when it is non-nil. The walk is depth-first: a node's own inputs
// first, then its children by priority (highest first, ties by id), then its
// own outputs, which only qualify once every child and input beneath the node
// is complete. Mock exams only qualify when their required hours fit in
// maxHours. Exam-level outputs are the last resort. It returns nil when no
// material matches.
func (g *Graph) FindNextTask(exam, subject *Node, kinds []curriculum.MaterialKind, maxHours float64) *Material {
	f := taskFilter{kinds: kinds, maxHours: maxHours}

	start := exam
	if subject != nil {
		start = subject
	}
	if m := g.search(start, f); m != nil {
		return m
	}

	if subject != nil && exam.leafReady() {
		return f.first(exam.outputs)
	}
	return nil
}

func (g *Graph) search(start *Node, f taskFilter) *Material {
	if m := f.first(start.inputs); m != nil {
		return m
	}

	stack := []*frame{{node: start}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.next < len(top.node.descent) {
			child := g.nodes[top.node.descent[top.next]]
			top.next++
			if child.Completed() {
				continue
			}
			if m := f.first(child.inputs); m != nil {
				return m
			}
			stack = append(stack, &frame{node: child})
			continue
		}

		stack = stack[:len(stack)-1]
		if top.node.leafReady() {
			if m := f.first(top.node.outputs); m != nil {
				return m
			}
		}
	}
	return nil
}
