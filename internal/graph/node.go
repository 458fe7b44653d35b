// Package graph holds the in-memory completion-dependency forest of a
// curriculum: exams own subjects, subjects own topics, topics nest, and every
// node may own study materials. Nodes keep counters of unfinished children and
// materials so completion is an O(1) check that stays correct as effort is
// applied.
package graph

import "github.com/p-n-ai/pai-planner/internal/curriculum"

// Kind is the level of a node in the hierarchy.
type Kind uint8

const (
	KindExam Kind = iota + 1
	KindSubject
	KindTopic
)

func (k Kind) String() string {
	switch k {
	case KindExam:
		return "exam"
	case KindSubject:
		return "subject"
	case KindTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// KindOf maps a stored owner kind onto a node kind.
func KindOf(o curriculum.OwnerKind) (Kind, bool) {
	switch o {
	case curriculum.OwnerExam:
		return KindExam, true
	case curriculum.OwnerSubject:
		return KindSubject, true
	case curriculum.OwnerTopic:
		return KindTopic, true
	default:
		return 0, false
	}
}

// NodeRef identifies a node. IDs are unique per kind only.
type NodeRef struct {
	Kind Kind
	ID   int64
}

// Material is a unit of study effort owned by a node.
type Material struct {
	ID          int64
	Title       string
	Kind        curriculum.MaterialKind
	Required    float64
	Accumulated float64
	Completed   bool

	owner  int
	output bool
}

// IsOutput reports whether the material was attached as an output.
func (m *Material) IsOutput() bool {
	return m.output
}

// Remaining returns the hours still needed to complete the material.
func (m *Material) Remaining() float64 {
	return m.Required - m.Accumulated
}

// Node is an exam, subject or topic.
type Node struct {
	ID       int64
	Kind     Kind
	Name     string
	Priority int

	index    int
	parent   int   // arena index, -1 for exams
	children []int // by id
	descent  []int // by priority desc, id asc
	inputs   []*Material
	outputs  []*Material

	unfinishedChildren int
	unfinishedInputs   int
	unfinishedOutputs  int
}

// Ref returns the node's identity.
func (n *Node) Ref() NodeRef {
	return NodeRef{Kind: n.Kind, ID: n.ID}
}

// Completed reports whether every descendant material is complete.
func (n *Node) Completed() bool {
	return n.unfinishedChildren == 0 && n.unfinishedInputs == 0 && n.unfinishedOutputs == 0
}

func (n *Node) UnfinishedChildren() int { return n.unfinishedChildren }
func (n *Node) UnfinishedInputs() int   { return n.unfinishedInputs }
func (n *Node) UnfinishedOutputs() int  { return n.unfinishedOutputs }

// Inputs returns the node's input materials in attachment order.
func (n *Node) Inputs() []*Material { return n.inputs }

// Outputs returns the node's output materials in attachment order.
func (n *Node) Outputs() []*Material { return n.outputs }

// leafReady reports whether everything beneath the node except its own
// outputs is done.
func (n *Node) leafReady() bool {
	return n.unfinishedChildren == 0 && n.unfinishedInputs == 0
}
