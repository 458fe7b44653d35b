package planner

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-planner/internal/graph"
)

// Row is a plan entry resolved into human-readable labels.
type Row struct {
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Task     string `json:"task"`
	Exam     string `json:"exam,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Minutes  int    `json:"minutes"`
}

var categoryLabels = map[Category]string{
	CategoryPassive: "Passive input",
	CategoryActive:  "Active input",
	CategoryOutput:  "Output",
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Unknown"
}

// Format resolves entries against g into display rows. Topic names along the
// material's lineage are joined with " / ".
func Format(g *graph.Graph, entries []Entry) []Row {
	title := cases.Title(language.English)

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{
			Date:     e.Date,
			Start:    e.Start,
			End:      e.End,
			Category: e.Category.Label(),
			Kind:     title.String(strings.ReplaceAll(string(e.Kind), "_", " ")),
			Task:     e.Title,
			Minutes:  int(math.Round(e.Hours * 60)),
		}

		if m, ok := g.Material(e.Kind, e.MaterialID); ok {
			var topics []string
			for _, n := range g.Lineage(m) {
				switch n.Kind {
				case graph.KindExam:
					row.Exam = n.Name
				case graph.KindSubject:
					row.Subject = n.Name
				case graph.KindTopic:
					topics = append(topics, n.Name)
				}
			}
			row.Topic = strings.Join(topics, " / ")
		}
		rows = append(rows, row)
	}
	return rows
}
