package common

import (
	"encoding/json"
)

// Status strings sent to clients before each pipeline stage.
const (
	StatusLaunching   = "Launching browser..."
	StatusNavigating  = "Navigating to page..."
	StatusAnalyzing   = "Analyzing page structure..."
	StatusIdentifying = "Identifying review elements..."
	StatusExtracting  = "Extracting reviews..."
	StatusProcessing  = "Processing extracted data..."

	StatusComplete = "complete"
	StatusError    = "error"
)

// Defaults applied when a scraped review lacks a field.
const (
	DefaultTitle    = "Review"
	DefaultReviewer = "Anonymous"
)

// ContainerCandidate describes an element whose text mentions reviews or ratings
type ContainerCandidate struct {
	Tag        string   `json:"tag"`
	Classes    []string `json:"classes"`
	ID         string   `json:"id"`
	ChildCount int      `json:"childCount"`
}

// RatingType records an element whose text looks like a rating
type RatingType struct {
	Element string `json:"element"`
	Pattern string `json:"pattern"`
}

// PageStructure is the heuristic summary of a rendered page handed to the
// selector inference step.
type PageStructure struct {
	HasReviewContainer       bool                 `json:"hasReviewContainer"`
	PossibleReviewContainers []ContainerCandidate `json:"possibleReviewContainers"`
	RatingTypes              []RatingType         `json:"ratingTypes"`
}

// SelectorMap holds the CSS selectors proposed by the model. None of them
// are validated before use.
type SelectorMap struct {
	ReviewContainer string `json:"reviewContainer"`
	ReviewTitle     string `json:"reviewTitle"`
	ReviewText      string `json:"reviewText"`
	Rating          string `json:"rating"`
	ReviewerName    string `json:"reviewerName"`
}

// RawReview is a review as scraped from the page. Empty strings mean the
// field was not found.
type RawReview struct {
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Rating string `json:"rating,omitempty"`
	Author string `json:"author,omitempty"`
}

// Review is the normalized shape returned to clients
type Review struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Rating   int    `json:"rating"`
	Reviewer string `json:"reviewer"`
}

// Event is one line of the progress stream. Exactly one of the three
// shapes is encoded depending on Status.
type Event struct {
	Status       string   `json:"status"`
	ReviewsCount int      `json:"reviews_count,omitempty"`
	Reviews      []Review `json:"reviews,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// StatusEvent announces the stage about to run
func StatusEvent(status string) Event {
	return Event{Status: status}
}

// CompleteEvent carries the final review batch
func CompleteEvent(reviews []Review) Event {
	if reviews == nil {
		reviews = []Review{}
	}
	return Event{
		Status:       StatusComplete,
		ReviewsCount: len(reviews),
		Reviews:      reviews,
	}
}

// ErrorEvent carries the message of the error that ended the stream
func ErrorEvent(err error) Event {
	return Event{Status: StatusError, Error: err.Error()}
}

// Terminal reports whether the event ends the stream
func (e Event) Terminal() bool {
	return e.Status == StatusComplete || e.Status == StatusError
}

// MarshalJSON writes only the fields belonging to the event's shape, so a
// complete event always carries reviews_count and reviews even when empty.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Status {
	case StatusComplete:
		reviews := e.Reviews
		if reviews == nil {
			reviews = []Review{}
		}
		return json.Marshal(struct {
			Status       string   `json:"status"`
			ReviewsCount int      `json:"reviews_count"`
			Reviews      []Review `json:"reviews"`
		}{e.Status, len(reviews), reviews})
	case StatusError:
		return json.Marshal(struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}{e.Status, e.Error})
	default:
		return json.Marshal(struct {
			Status string `json:"status"`
		}{e.Status})
	}
}
