package curriculum

// MaterialKind names the kind of a study material.
type MaterialKind string

const (
	KindNote        MaterialKind = "note"
	KindVideo       MaterialKind = "video"
	KindRecite      MaterialKind = "recite"
	KindExerciseSet MaterialKind = "exercise_set"
	KindMockExam    MaterialKind = "mock_exam"
)

// IsOutput reports whether the kind belongs to output materials.
func (k MaterialKind) IsOutput() bool {
	return k == KindExerciseSet || k == KindMockExam
}

// OwnerKind names the node kind that owns an output material.
type OwnerKind string

const (
	OwnerExam    OwnerKind = "exam"
	OwnerSubject OwnerKind = "subject"
	OwnerTopic   OwnerKind = "topic"
)

// Exam is a top-level study target (e.g., a final exam).
type Exam struct {
	ID       int64  `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Priority int    `yaml:"priority" json:"priority"`
}

// Subject belongs to an exam.
type Subject struct {
	ID       int64  `yaml:"id" json:"id"`
	ExamID   int64  `yaml:"exam_id" json:"exam_id"`
	Name     string `yaml:"name" json:"name"`
	Priority int    `yaml:"priority" json:"priority"`
}

// Topic belongs to a subject, either directly or under a parent topic.
type Topic struct {
	ID         int64  `yaml:"id" json:"id"`
	SubjectID  int64  `yaml:"subject_id" json:"subject_id"`
	ParentID   *int64 `yaml:"parent_id,omitempty" json:"parent_id"`
	Name       string `yaml:"name" json:"name"`
	Importance int    `yaml:"importance" json:"importance"`
}

// InputMaterial is a note, video or recitation attached to a topic.
type InputMaterial struct {
	ID            int64        `yaml:"id" json:"id"`
	TopicID       int64        `yaml:"topic_id" json:"topic_id"`
	Kind          MaterialKind `yaml:"kind" json:"kind"`
	Title         string       `yaml:"title" json:"title"`
	RequiredHours float64      `yaml:"required_hours" json:"required_hours"`
	ReviewedHours float64      `yaml:"reviewed_hours" json:"reviewed_hours"`
	Completed     bool         `yaml:"completed" json:"completed"`
}

// OutputMaterial is an exercise set or mock exam owned by an exam, subject or topic.
type OutputMaterial struct {
	ID            int64        `yaml:"id" json:"id"`
	OwnerKind     OwnerKind    `yaml:"owner_kind" json:"owner_kind"`
	OwnerID       int64        `yaml:"owner_id" json:"owner_id"`
	Kind          MaterialKind `yaml:"kind" json:"kind"`
	Title         string       `yaml:"title" json:"title"`
	RequiredHours float64      `yaml:"required_hours" json:"required_hours"`
	ReviewedHours float64      `yaml:"reviewed_hours" json:"reviewed_hours"`
	Completed     bool         `yaml:"completed" json:"completed"`
}

// WeeklyWindow is a recurring availability window. Weekday 0 is Monday.
type WeeklyWindow struct {
	Weekday int    `yaml:"weekday" json:"weekday"`
	Start   string `yaml:"start" json:"start"`
	End     string `yaml:"end" json:"end"`
}

// DateWindow is an availability window for one specific date. All windows of
// a date replace the weekly pattern for that date.
type DateWindow struct {
	Date  string `yaml:"date" json:"date"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Snapshot is a read-only copy of everything a planning run needs.
type Snapshot struct {
	Exams     []Exam           `yaml:"exams" json:"exams"`
	Subjects  []Subject        `yaml:"subjects" json:"subjects"`
	Topics    []Topic          `yaml:"topics" json:"topics"`
	Inputs    []InputMaterial  `yaml:"inputs" json:"inputs"`
	Outputs   []OutputMaterial `yaml:"outputs" json:"outputs"`
	Weekly    []WeeklyWindow   `yaml:"weekly" json:"weekly"`
	Overrides []DateWindow     `yaml:"overrides" json:"overrides"`
}

// Merge appends every record of other to s.
func (s *Snapshot) Merge(other Snapshot) {
	s.Exams = append(s.Exams, other.Exams...)
	s.Subjects = append(s.Subjects, other.Subjects...)
	s.Topics = append(s.Topics, other.Topics...)
	s.Inputs = append(s.Inputs, other.Inputs...)
	s.Outputs = append(s.Outputs, other.Outputs...)
	s.Weekly = append(s.Weekly, other.Weekly...)
	s.Overrides = append(s.Overrides, other.Overrides...)
}

// Clone returns a copy that shares no slices with s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{}
	c.Merge(*s)
	for i, t := range c.Topics {
		if t.ParentID != nil {
			p := *t.ParentID
			c.Topics[i].ParentID = &p
		}
	}
	return c
}
