package curriculum_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
)

func validSnapshot() *curriculum.Snapshot {
	return &curriculum.Snapshot{
		Exams:    []curriculum.Exam{{ID: 1, Name: "Finals", Priority: 9}},
		Subjects: []curriculum.Subject{{ID: 10, ExamID: 1, Name: "Calculus", Priority: 0}},
		Topics:   []curriculum.Topic{{ID: 100, SubjectID: 10, Name: "Limits", Importance: 4}},
		Inputs: []curriculum.InputMaterial{
			{ID: 1, TopicID: 100, Kind: curriculum.KindRecite, Title: "Definitions", RequiredHours: 0.5},
		},
		Outputs: []curriculum.OutputMaterial{
			{ID: 1, OwnerKind: curriculum.OwnerSubject, OwnerID: 10, Kind: curriculum.KindExerciseSet, Title: "Drills", RequiredHours: 1},
		},
		Weekly:    []curriculum.WeeklyWindow{{Weekday: 6, Start: "20:00", End: "24:00"}},
		Overrides: []curriculum.DateWindow{{Date: "2025-12-31", Start: "00:00", End: "01:30"}},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := curriculum.Validate(validSnapshot()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := curriculum.Validate(&curriculum.Snapshot{}); err != nil {
		t.Fatalf("Validate(empty) error = %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*curriculum.Snapshot)
		field  string
	}{
		{"exam priority too high", func(s *curriculum.Snapshot) { s.Exams[0].Priority = 10 }, "priority"},
		{"negative subject priority", func(s *curriculum.Snapshot) { s.Subjects[0].Priority = -1 }, "priority"},
		{"topic importance", func(s *curriculum.Snapshot) { s.Topics[0].Importance = 12 }, "importance"},
		{"input kind", func(s *curriculum.Snapshot) { s.Inputs[0].Kind = curriculum.KindMockExam }, "kind"},
		{"output kind", func(s *curriculum.Snapshot) { s.Outputs[0].Kind = curriculum.KindNote }, "kind"},
		{"owner kind", func(s *curriculum.Snapshot) { s.Outputs[0].OwnerKind = "course" }, "owner_kind"},
		{"negative hours", func(s *curriculum.Snapshot) { s.Inputs[0].RequiredHours = -0.5 }, "required_hours"},
		{"weekday", func(s *curriculum.Snapshot) { s.Weekly[0].Weekday = 7 }, "weekday"},
		{"clock", func(s *curriculum.Snapshot) { s.Weekly[0].Start = "8:00" }, "start"},
		{"date", func(s *curriculum.Snapshot) { s.Overrides[0].Date = "31/12/2025" }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)

			err := curriculum.Validate(snap)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !errors.Is(err, curriculum.ErrInvalidSnapshot) {
				t.Errorf("Validate() error = %v, want ErrInvalidSnapshot", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() error = %q, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	snap := validSnapshot()
	snap.Exams[0].Priority = 10
	snap.Weekly[0].Weekday = -1

	err := curriculum.Validate(snap)
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.Contains(err.Error(), "priority") || !strings.Contains(err.Error(), "weekday") {
		t.Errorf("Validate() error = %q, want both violations", err)
	}
}
