// Package planner turns a curriculum graph and a list of study windows into a
// time-ordered study plan, and serves plans to callers.
package planner

import (
	"github.com/p-n-ai/pai-planner/internal/calendar"
	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/graph"
)

const (
	// SegmentMinutes is the size of the atomic scheduling unit.
	SegmentMinutes = 30
	// MaxOutputSegments bounds how many contiguous segments one output
	// entry may span.
	MaxOutputSegments = 4
)

// Category is the kind of study activity a segment is used for.
type Category string

const (
	CategoryPassive Category = "passive"
	CategoryActive  Category = "active"
	CategoryOutput  Category = "output"
)

// rotation is the fixed order categories cycle through across segments.
var rotation = [3]Category{CategoryPassive, CategoryActive, CategoryOutput}

// Kinds returns the material kinds a category may schedule.
func (c Category) Kinds() []curriculum.MaterialKind {
	switch c {
	case CategoryPassive:
		return []curriculum.MaterialKind{curriculum.KindNote, curriculum.KindVideo}
	case CategoryActive:
		return []curriculum.MaterialKind{curriculum.KindRecite}
	case CategoryOutput:
		return []curriculum.MaterialKind{curriculum.KindExerciseSet, curriculum.KindMockExam}
	default:
		return nil
	}
}

// Entry is one scheduled study session.
type Entry struct {
	Date       string                  `json:"date"`
	Start      string                  `json:"start"`
	End        string                  `json:"end"`
	Category   Category                `json:"category"`
	MaterialID int64                   `json:"material_id"`
	Kind       curriculum.MaterialKind `json:"kind"`
	Title      string                  `json:"title"`
	Hours      float64                 `json:"hours"`
}

// Plan is the result of a scheduling pass.
type Plan struct {
	Entries  []Entry `json:"entries"`
	Segments int     `json:"segments"`
	Wasted   int     `json:"wasted_segments"`
	// Finished is true when every schedulable exam was completed before the
	// segments ran out.
	Finished bool `json:"finished"`
}

type pair struct {
	exam    int64
	subject int64
	none    bool
}

// Schedule fills windows with study sessions drawn from g, mutating g as
// effort is applied. Windows are cut into 30-minute segments. Each segment
// starts its category rotation at passive, active or output by index, and
// tries every reachable exam/subject pair before it is left empty. Output
// sessions may merge up to four contiguous same-day segments so a mock exam
// fits in one sitting.
func Schedule(g *graph.Graph, windows []calendar.Window) Plan {
	segs := calendar.Split(windows, SegmentMinutes)
	plan := Plan{Segments: len(segs)}

	for i := 0; i < len(segs); {
		tried := make(map[pair]struct{})
		consumed := 0

		for consumed == 0 {
			exam := g.SelectNextExam()
			if exam == nil {
				plan.Finished = true
				return plan
			}
			subject := g.SelectNextSubject(exam)

			key := pair{exam: exam.ID, none: subject == nil}
			if subject != nil {
				key.subject = subject.ID
			}
			if _, seen := tried[key]; seen {
				break
			}
			tried[key] = struct{}{}

			for shift := range len(rotation) {
				cat := rotation[(i+shift)%len(rotation)]
				m, window := assign(g, exam, subject, cat, segs[i:])
				if m == nil {
					continue
				}

				hours := spanHours(window)
				g.ApplyEffort(m, hours)
				plan.Entries = append(plan.Entries, Entry{
					Date:       window[0].DateString(),
					Start:      window[0].Start.String(),
					End:        window[len(window)-1].End.String(),
					Category:   cat,
					MaterialID: m.ID,
					Kind:       m.Kind,
					Title:      m.Title,
					Hours:      hours,
				})
				consumed = len(window)
				break
			}
		}

		if consumed == 0 {
			plan.Wasted++
			consumed = 1
		}
		i += consumed
	}

	plan.Finished = g.SelectNextExam() == nil
	return plan
}

// assign finds a material for cat starting at rest[0] and returns it with the
// segments it occupies.
func assign(g *graph.Graph, exam, subject *graph.Node, cat Category, rest []calendar.Window) (*graph.Material, []calendar.Window) {
	if cat != CategoryOutput {
		window := rest[:1]
		return g.FindNextTask(exam, subject, cat.Kinds(), spanHours(window)), window
	}

	for n := 1; n <= min(MaxOutputSegments, len(rest)); n++ {
		if n > 1 && !calendar.Contiguous(rest[n-2], rest[n-1]) {
			break
		}
		window := rest[:n]
		if m := g.FindNextTask(exam, subject, cat.Kinds(), spanHours(window)); m != nil {
			return m, window
		}
	}
	return nil, nil
}

func spanHours(window []calendar.Window) float64 {
	var h float64
	for _, w := range window {
		h += w.Hours()
	}
	return h
}
