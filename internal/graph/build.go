package graph

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
)

// completionEpsilon absorbs float drift from summing fractional hours.
const completionEpsilon = 1e-9

type materialKey struct {
	output bool
	id     int64
}

// Graph owns every node and material of one planning run. Its shape is fixed
// after Build; only material progress, node counters and selection cursors
// change.
type Graph struct {
	nodes     []*Node
	index     map[NodeRef]int
	exams     []int
	materials map[materialKey]*Material
	dropped   int

	examCursor     cursor
	subjectCursors map[int64]*cursor
}

// Stats summarises a built graph.
type Stats struct {
	Exams     int
	Subjects  int
	Topics    int
	Materials int
	Dropped   int
}

// Build constructs the forest from a snapshot. Records that reference a
// missing owner or parent are dropped, as are topics whose parent chain is
// dropped or cyclic.
func Build(snap *curriculum.Snapshot) *Graph {
	g := &Graph{
		index:          make(map[NodeRef]int),
		materials:      make(map[materialKey]*Material),
		subjectCursors: make(map[int64]*cursor),
	}

	for _, e := range snap.Exams {
		if _, dup := g.index[NodeRef{KindExam, e.ID}]; dup {
			g.drop("duplicate exam", "exam_id", e.ID)
			continue
		}
		n := g.addNode(KindExam, e.ID, e.Name, e.Priority, -1)
		g.exams = append(g.exams, n.index)
	}

	for _, s := range snap.Subjects {
		exam, ok := g.index[NodeRef{KindExam, s.ExamID}]
		if !ok {
			g.drop("subject references missing exam", "subject_id", s.ID, "exam_id", s.ExamID)
			continue
		}
		if _, dup := g.index[NodeRef{KindSubject, s.ID}]; dup {
			g.drop("duplicate subject", "subject_id", s.ID)
			continue
		}
		g.addNode(KindSubject, s.ID, s.Name, s.Priority, exam)
	}

	g.addTopics(snap.Topics)

	for i := range snap.Inputs {
		rec := &snap.Inputs[i]
		owner, ok := g.index[NodeRef{KindTopic, rec.TopicID}]
		if !ok {
			g.drop("input material references missing topic", "material_id", rec.ID, "topic_id", rec.TopicID)
			continue
		}
		m := g.addMaterial(false, rec.ID, rec.Title, rec.Kind, rec.RequiredHours, rec.ReviewedHours, rec.Completed, owner)
		if m != nil {
			g.nodes[owner].inputs = append(g.nodes[owner].inputs, m)
		}
	}

	for i := range snap.Outputs {
		rec := &snap.Outputs[i]
		kind, ok := KindOf(rec.OwnerKind)
		if !ok {
			g.drop("output material has unknown owner kind", "material_id", rec.ID, "owner_kind", rec.OwnerKind)
			continue
		}
		owner, ok := g.index[NodeRef{kind, rec.OwnerID}]
		if !ok {
			g.drop("output material references missing owner", "material_id", rec.ID, "owner_kind", rec.OwnerKind, "owner_id", rec.OwnerID)
			continue
		}
		m := g.addMaterial(true, rec.ID, rec.Title, rec.Kind, rec.RequiredHours, rec.ReviewedHours, rec.Completed, owner)
		if m != nil {
			g.nodes[owner].outputs = append(g.nodes[owner].outputs, m)
		}
	}

	g.orderChildren()
	g.computeCounters()
	return g
}

func (g *Graph) addNode(kind Kind, id int64, name string, priority, parent int) *Node {
	n := &Node{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Priority: priority,
		index:    len(g.nodes),
		parent:   parent,
	}
	g.nodes = append(g.nodes, n)
	g.index[n.Ref()] = n.index
	if parent >= 0 {
		g.nodes[parent].children = append(g.nodes[parent].children, n.index)
	}
	return n
}

func (g *Graph) addMaterial(output bool, id int64, title string, kind curriculum.MaterialKind, required, reviewed float64, completed bool, owner int) *Material {
	key := materialKey{output: output, id: id}
	if _, dup := g.materials[key]; dup {
		g.drop("duplicate material", "material_id", id, "kind", kind)
		return nil
	}

	required = max(required, 0)
	accumulated := min(max(reviewed, 0), required)
	if completed || required-accumulated <= completionEpsilon {
		completed = true
		accumulated = required
	}

	m := &Material{
		ID:          id,
		Title:       title,
		Kind:        kind,
		Required:    required,
		Accumulated: accumulated,
		Completed:   completed,
		owner:       owner,
		output:      output,
	}
	g.materials[key] = m
	return m
}

type topicState uint8

const (
	topicPending topicState = iota
	topicVisiting
	topicLinked
	topicDropped
)

// addTopics links topics whose parent may appear later in the record list.
// Parent chains are resolved with an explicit stack.
func (g *Graph) addTopics(topics []curriculum.Topic) {
	records := make(map[int64]*curriculum.Topic, len(topics))
	order := make([]int64, 0, len(topics))
	for i := range topics {
		t := &topics[i]
		if _, dup := records[t.ID]; dup {
			g.drop("duplicate topic", "topic_id", t.ID)
			continue
		}
		records[t.ID] = t
		order = append(order, t.ID)
	}
	slices.Sort(order)

	state := make(map[int64]topicState, len(records))
	for _, id := range order {
		stack := []int64{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			if s := state[cur]; s == topicLinked || s == topicDropped {
				stack = stack[:len(stack)-1]
				continue
			}
			rec := records[cur]

			if rec.ParentID == nil {
				stack = stack[:len(stack)-1]
				subject, ok := g.index[NodeRef{KindSubject, rec.SubjectID}]
				if !ok {
					state[cur] = topicDropped
					g.drop("topic references missing subject", "topic_id", cur, "subject_id", rec.SubjectID)
					continue
				}
				g.addNode(KindTopic, rec.ID, rec.Name, rec.Importance, subject)
				state[cur] = topicLinked
				continue
			}

			parentID := *rec.ParentID
			if _, known := records[parentID]; !known {
				stack = stack[:len(stack)-1]
				state[cur] = topicDropped
				g.drop("topic references missing parent", "topic_id", cur, "parent_id", parentID)
				continue
			}

			switch state[parentID] {
			case topicLinked:
				stack = stack[:len(stack)-1]
				g.addNode(KindTopic, rec.ID, rec.Name, rec.Importance, g.index[NodeRef{KindTopic, parentID}])
				state[cur] = topicLinked
			case topicDropped, topicVisiting:
				stack = stack[:len(stack)-1]
				state[cur] = topicDropped
				g.drop("topic parent chain is dropped or cyclic", "topic_id", cur, "parent_id", parentID)
			default:
				state[cur] = topicVisiting
				stack = append(stack, parentID)
			}
		}
	}
}

func (g *Graph) orderChildren() {
	slices.SortFunc(g.exams, func(a, b int) int {
		return cmp.Compare(g.nodes[a].ID, g.nodes[b].ID)
	})
	for _, n := range g.nodes {
		slices.SortFunc(n.children, func(a, b int) int {
			return cmp.Compare(g.nodes[a].ID, g.nodes[b].ID)
		})
		n.descent = slices.Clone(n.children)
		slices.SortStableFunc(n.descent, func(a, b int) int {
			return cmp.Compare(g.nodes[b].Priority, g.nodes[a].Priority)
		})
	}
}

// computeCounters fills the unfinished counters children-first. The reverse
// of a pre-order walk visits every child before its parent.
func (g *Graph) computeCounters() {
	preorder := make([]int, 0, len(g.nodes))
	stack := slices.Clone(g.exams)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		preorder = append(preorder, cur)
		stack = append(stack, g.nodes[cur].children...)
	}

	for i := len(preorder) - 1; i >= 0; i-- {
		n := g.nodes[preorder[i]]
		n.unfinishedInputs = countUnfinished(n.inputs)
		n.unfinishedOutputs = countUnfinished(n.outputs)
		n.unfinishedChildren = g.unfinishedChildren(n)
	}
}

func (g *Graph) unfinishedChildren(n *Node) int {
	count := 0
	for _, c := range n.children {
		if !g.nodes[c].Completed() {
			count++
		}
	}
	return count
}

func countUnfinished(ms []*Material) int {
	count := 0
	for _, m := range ms {
		if !m.Completed {
			count++
		}
	}
	return count
}

func (g *Graph) drop(msg string, args ...any) {
	g.dropped++
	slog.Debug("graph build: "+msg, args...)
}

// Stats returns node, material and dropped-record counts.
func (g *Graph) Stats() Stats {
	s := Stats{Materials: len(g.materials), Dropped: g.dropped}
	for _, n := range g.nodes {
		switch n.Kind {
		case KindExam:
			s.Exams++
		case KindSubject:
			s.Subjects++
		case KindTopic:
			s.Topics++
		}
	}
	return s
}

// Node looks up a node by reference.
func (g *Graph) Node(ref NodeRef) (*Node, bool) {
	i, ok := g.index[ref]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Exams returns the exam roots ordered by id.
func (g *Graph) Exams() []*Node {
	return g.resolve(g.exams)
}

// Children returns n's direct children ordered by id.
func (g *Graph) Children(n *Node) []*Node {
	return g.resolve(n.children)
}

// Parent returns n's parent, or nil for exams.
func (g *Graph) Parent(n *Node) *Node {
	if n.parent < 0 {
		return nil
	}
	return g.nodes[n.parent]
}

// Owner returns the node that owns m.
func (g *Graph) Owner(m *Material) *Node {
	return g.nodes[m.owner]
}

// Lineage returns the chain of nodes from the exam down to m's owner.
func (g *Graph) Lineage(m *Material) []*Node {
	var chain []*Node
	for i := m.owner; i >= 0; i = g.nodes[i].parent {
		chain = append(chain, g.nodes[i])
	}
	slices.Reverse(chain)
	return chain
}

// Material looks up a material by kind and id.
func (g *Graph) Material(kind curriculum.MaterialKind, id int64) (*Material, bool) {
	m, ok := g.materials[materialKey{output: kind.IsOutput(), id: id}]
	return m, ok
}

// Completed reports whether every exam is complete.
func (g *Graph) Completed() bool {
	for _, i := range g.exams {
		if !g.nodes[i].Completed() {
			return false
		}
	}
	return true
}

func (g *Graph) resolve(idx []int) []*Node {
	out := make([]*Node, len(idx))
	for i, j := range idx {
		out[i] = g.nodes[j]
	}
	return out
}
