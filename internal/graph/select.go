package graph

type cursor struct {
	id  int64
	set bool
}

// SelectNextExam picks the next exam to work on: the highest-priority
// incomplete exam with priority above zero, rotating by id among ties.
// It returns nil once no such exam remains.
func (g *Graph) SelectNextExam() *Node {
	return g.pickNext(g.exams, &g.examCursor)
}

// SelectNextSubject picks the next subject under exam with the same rule,
// keeping a separate rotation per exam. It returns nil when the exam has no
// active subject.
func (g *Graph) SelectNextSubject(exam *Node) *Node {
	cur, ok := g.subjectCursors[exam.ID]
	if !ok {
		cur = &cursor{}
		g.subjectCursors[exam.ID] = cur
	}
	return g.pickNext(exam.children, cur)
}

// pickNext expects candidates ordered by id.
func (g *Graph) pickNext(candidates []int, cur *cursor) *Node {
	top := 0
	var tied []*Node
	for _, i := range candidates {
		n := g.nodes[i]
		if n.Completed() || n.Priority <= 0 {
			continue
		}
		switch {
		case n.Priority > top:
			top = n.Priority
			tied = append(tied[:0], n)
		case n.Priority == top:
			tied = append(tied, n)
		}
	}
	if len(tied) == 0 {
		return nil
	}

	next := tied[0]
	if cur.set {
		for i, n := range tied {
			if n.ID == cur.id {
				next = tied[(i+1)%len(tied)]
				break
			}
		}
	}
	cur.id, cur.set = next.ID, true
	return next
}
