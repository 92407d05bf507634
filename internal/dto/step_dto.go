package dto

// StepStatus describes one workflow step for the current form state.
type StepStatus struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Index     int      `json:"index"`
	Valid     bool     `json:"valid"`
	Visited   bool     `json:"visited"`
	Reachable bool     `json:"reachable"`
	Missing   []string `json:"missing"`
}

// StepsResponse lists all steps of an assignment.
type StepsResponse struct {
	AssignmentID uint         `json:"assignment_id"`
	Status       string       `json:"status"`
	Frozen       bool         `json:"frozen"`
	Steps        []StepStatus `json:"steps"`
}

// NavigateRequest asks to move from Current to Target or in Direction.
type NavigateRequest struct {
	Current   string        `json:"current" validate:"required"`
	Target    string        `json:"target" validate:"required_without=Direction"`
	Direction string        `json:"direction" validate:"omitempty,oneof=next previous"`
	Draft     *DraftRequest `json:"draft" validate:"omitempty"`
}

// NavigateResponse is the navigation decision.
type NavigateResponse struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Allowed bool     `json:"allowed"`
	Missing []string `json:"missing,omitempty"`
	Visited []string `json:"visited"`
}
