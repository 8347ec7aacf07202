package domain

// Breadcrumb is one step of the page trail shown in the dashboard header.
type Breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

// Chrome is the shared layout state of a user's dashboard.
type Chrome struct {
	Title         string       `json:"title"`
	Breadcrumbs   []Breadcrumb `json:"breadcrumbs"`
	FeedbackModal bool         `json:"feedback_modal"`
}
