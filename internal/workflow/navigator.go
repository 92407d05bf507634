package workflow

import "sync"

// Visits records which steps a student has reached.
type Visits struct {
	mu      sync.Mutex
	visited map[StepID]struct{}
	order   []StepID
}

// NewVisits seeds the set from persisted step ids.
func NewVisits(steps ...string) *Visits {
	v := &Visits{visited: make(map[StepID]struct{})}
	for _, step := range steps {
		v.MarkVisited(StepID(step))
	}
	return v
}

// MarkVisited records step as visited. It returns true if the step was new.
func (v *Visits) MarkVisited(step StepID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.visited[step]; ok {
		return false
	}
	v.visited[step] = struct{}{}
	v.order = append(v.order, step)
	return true
}

// Visited reports whether step has been marked.
func (v *Visits) Visited(step StepID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.visited[step]
	return ok
}

// List returns visited steps in the order they were first marked.
func (v *Visits) List() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.order))
	for _, step := range v.order {
		out = append(out, string(step))
	}
	return out
}

// Navigator gates movement between steps.
type Navigator struct {
	table     Table
	validator Validator
	visits    *Visits
}

// NewNavigator builds a navigator. A nil visits set is replaced with an empty one.
func NewNavigator(table Table, visits *Visits) *Navigator {
	if visits == nil {
		visits = NewVisits()
	}
	return &Navigator{
		table:     table,
		validator: NewValidator(table),
		visits:    visits,
	}
}

// Visits exposes the visited set the navigator maintains.
func (n *Navigator) Visits() *Visits {
	return n.visits
}

// CanNavigate reports whether the student may move from current to target.
func (n *Navigator) CanNavigate(target, current StepID, form FormData) bool {
	if IsFrozen(form.Status) {
		return target == StepTeacherFeedback
	}

	targetIndex := n.table.Index(target)
	currentIndex := n.table.Index(current)
	if targetIndex < 0 || currentIndex < 0 {
		return false
	}

	if targetIndex <= currentIndex {
		return true
	}

	for i := 0; i <= currentIndex; i++ {
		if !n.check(n.table.steps[i].ID, form) {
			return false
		}
	}
	return true
}

// Next returns the step following current, or false when advancing is blocked.
func (n *Navigator) Next(current StepID, form FormData) (StepID, bool) {
	if n.table.Index(current) < 0 {
		return "", false
	}

	if IsFrozen(form.Status) {
		if current == StepTeacherFeedback {
			return "", false
		}
		return StepTeacherFeedback, true
	}

	if !n.check(current, form) {
		return "", false
	}
	return n.table.Next(current)
}

// Previous returns the step before current.
func (n *Navigator) Previous(current StepID) (StepID, bool) {
	return n.table.Previous(current)
}

// check marks step visited, then validates it.
func (n *Navigator) check(step StepID, form FormData) bool {
	n.visits.MarkVisited(step)
	return n.validator.Validate(step, form)
}
