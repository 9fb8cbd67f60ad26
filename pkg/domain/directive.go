package domain

// Directive is the payload a presenter renders after every input.
type Directive struct {
	SessionID      string      `json:"session_id"`
	StepIndex      int         `json:"step_index"`
	StepCount      int         `json:"step_count"`
	QuestionText   string      `json:"question_text"`
	OptionLabels   []string    `json:"option_labels"`
	SelectedOption *int        `json:"selected_option,omitempty"`
	LockHeld       bool        `json:"lock_held"`
	Completed      bool        `json:"completed"`
	CanGoBack      bool        `json:"can_go_back"`
	Illustration   int         `json:"illustration"`
	Indicators     []Indicator `json:"indicators"`
	Result         *Resolved   `json:"result,omitempty"`
}

// Indicator is the visual marker of one step (the numbered circles).
type Indicator struct {
	Index     int  `json:"index"`
	Active    bool `json:"active"`
	Completed bool `json:"completed"`
}

// Resolved is a Result with its course identifiers looked up in the catalog.
type Resolved struct {
	Index       int         `json:"index"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Courses     []CourseRef `json:"courses"`
}

// CourseRef is a recommended course as shown to the user.
type CourseRef struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Placeholder bool   `json:"placeholder,omitempty"`
}
