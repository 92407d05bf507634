package workflow

import "strings"

// Requirement names reported by Missing for rules that are not plain fields.
const (
	RequirementArtifact               = "artifact"
	RequirementTeamContribution       = "team_contribution"
	RequirementOriginalityExplanation = "originality_explanation"
)

// Validator evaluates step completeness against form state. It has no side effects.
type Validator struct {
	table Table
}

// NewValidator builds a validator over the given step table.
func NewValidator(table Table) Validator {
	return Validator{table: table}
}

// Validate reports whether step is complete for form.
func (v Validator) Validate(step StepID, form FormData) bool {
	if _, ok := v.table.Lookup(step); !ok {
		return false
	}
	return len(v.Missing(step, form)) == 0
}

// Missing lists the requirements of step that form does not satisfy.
func (v Validator) Missing(step StepID, form FormData) []string {
	def, ok := v.table.Lookup(step)
	if !ok {
		return []string{string(step)}
	}

	if step == StepReviewSubmit {
		return v.missingBeforeReview(form)
	}

	var missing []string
	for _, field := range def.Required {
		if !fieldPresent(form, field) {
			missing = append(missing, field.Name)
		}
	}

	switch step {
	case StepBasicInfo:
		if !form.HasArtifact() {
			missing = append(missing, RequirementArtifact)
		}
	case StepRoleOriginality:
		if form.IsTeamWork && strings.TrimSpace(form.TeamContribution) == "" {
			missing = append(missing, RequirementTeamContribution)
		}
		if form.IsOriginalWork && strings.TrimSpace(form.OriginalityExplanation) == "" {
			missing = append(missing, RequirementOriginalityExplanation)
		}
	}

	return missing
}

// missingBeforeReview aggregates every step preceding review-submit.
func (v Validator) missingBeforeReview(form FormData) []string {
	var missing []string
	for _, step := range v.table.steps {
		if step.ID == StepReviewSubmit || step.ID == StepTeacherFeedback {
			continue
		}
		for _, name := range v.Missing(step.ID, form) {
			missing = append(missing, string(step.ID)+"."+name)
		}
	}
	return missing
}

func fieldPresent(form FormData, field Field) bool {
	value, ok := form.value(field.Name)
	if !ok {
		return false
	}

	switch field.Kind {
	case FieldBool:
		return true
	case FieldArray:
		switch v := value.(type) {
		case []string:
			return len(v) > 0
		case []Artifact:
			return len(v) > 0
		default:
			return false
		}
	default:
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v) != ""
		case nil:
			return false
		default:
			return true
		}
	}
}
