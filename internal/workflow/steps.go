package workflow

// StepID identifies one page of the multi-step assignment form.
type StepID string

const (
	StepBasicInfo         StepID = "basic-info"
	StepRoleOriginality   StepID = "role-originality"
	StepSkillsReflection  StepID = "skills-reflection"
	StepProcessChallenges StepID = "process-challenges"
	StepReviewSubmit      StepID = "review-submit"
	StepTeacherFeedback   StepID = "teacher-feedback"
)

// FieldKind controls how presence of a required field is evaluated.
type FieldKind int

const (
	// FieldScalar requires a non-blank value.
	FieldScalar FieldKind = iota
	// FieldArray requires at least one element.
	FieldArray
	// FieldBool is always present once the form exists.
	FieldBool
)

// Field is a required form field of a step.
type Field struct {
	Name string
	Kind FieldKind
}

// Step describes one entry of the step definition table.
type Step struct {
	ID       StepID
	Title    string
	Required []Field
}

// Table is the ordered list of workflow steps. Order drives default navigation.
type Table struct {
	steps []Step
	index map[StepID]int
}

// DefaultTable is the portfolio submission workflow.
var DefaultTable = NewTable([]Step{
	{
		ID:    StepBasicInfo,
		Title: "Basic information",
		Required: []Field{
			{Name: "title", Kind: FieldScalar},
			{Name: "subject", Kind: FieldScalar},
			{Name: "grade", Kind: FieldScalar},
			{Name: "month", Kind: FieldScalar},
		},
	},
	{
		ID:    StepRoleOriginality,
		Title: "Role & originality",
		Required: []Field{
			{Name: "is_team_work", Kind: FieldBool},
			{Name: "is_original_work", Kind: FieldBool},
		},
	},
	{
		ID:    StepSkillsReflection,
		Title: "Skills & reflection",
		Required: []Field{
			{Name: "selected_skills", Kind: FieldArray},
			{Name: "skills_justification", Kind: FieldScalar},
		},
	},
	{
		ID:    StepProcessChallenges,
		Title: "Process & challenges",
		Required: []Field{
			{Name: "creation_process", Kind: FieldScalar},
			{Name: "learnings", Kind: FieldScalar},
			{Name: "challenges", Kind: FieldScalar},
			{Name: "improvements", Kind: FieldScalar},
		},
	},
	{ID: StepReviewSubmit, Title: "Review & submit"},
	{ID: StepTeacherFeedback, Title: "Teacher feedback"},
})

// NewTable copies the provided steps into an immutable table.
func NewTable(steps []Step) Table {
	copied := make([]Step, len(steps))
	index := make(map[StepID]int, len(steps))
	for i, step := range steps {
		required := make([]Field, len(step.Required))
		copy(required, step.Required)
		step.Required = required
		copied[i] = step
		index[step.ID] = i
	}
	return Table{steps: copied, index: index}
}

// Steps returns a copy of the ordered steps.
func (t Table) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Lookup returns the step definition for id.
func (t Table) Lookup(id StepID) (Step, bool) {
	i, ok := t.index[id]
	if !ok {
		return Step{}, false
	}
	return t.steps[i], true
}

// Index returns the position of id in the table, or -1.
func (t Table) Index(id StepID) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// Next returns the step after id.
func (t Table) Next(id StepID) (StepID, bool) {
	i := t.Index(id)
	if i < 0 || i+1 >= len(t.steps) {
		return "", false
	}
	return t.steps[i+1].ID, true
}

// Previous returns the step before id.
func (t Table) Previous(id StepID) (StepID, bool) {
	i := t.Index(id)
	if i <= 0 {
		return "", false
	}
	return t.steps[i-1].ID, true
}

// First returns the first step of the table.
func (t Table) First() StepID {
	if len(t.steps) == 0 {
		return ""
	}
	return t.steps[0].ID
}

// ParseStepID returns the step id if it exists in the default table.
func ParseStepID(raw string) (StepID, bool) {
	id := StepID(raw)
	if DefaultTable.Index(id) < 0 {
		return "", false
	}
	return id, true
}
