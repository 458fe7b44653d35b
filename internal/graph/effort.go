package graph

// ApplyEffort records hours of study on m and reports whether m became
// complete. Completed materials and non-positive hours are ignored. When m
// completes, its owner's counter drops and ancestors are recomputed upward
// until one keeps its completion state.
func (g *Graph) ApplyEffort(m *Material, hours float64) bool {
	if m.Completed || hours <= 0 {
		return false
	}

	m.Accumulated = min(m.Accumulated+hours, m.Required)
	if m.Required-m.Accumulated > completionEpsilon {
		return false
	}
	m.Accumulated = m.Required
	m.Completed = true

	owner := g.nodes[m.owner]
	was := owner.Completed()
	if m.output {
		owner.unfinishedOutputs--
	} else {
		owner.unfinishedInputs--
	}
	g.propagate(owner, was)
	return true
}

func (g *Graph) propagate(n *Node, was bool) {
	for n.Completed() != was && n.parent >= 0 {
		p := g.nodes[n.parent]
		was = p.Completed()
		p.unfinishedChildren = g.unfinishedChildren(p)
		n = p
	}
}
