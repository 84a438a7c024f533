package entity

import "time"

// ResponseDraft is a saved AI-assisted reply to a quote request.
type ResponseDraft struct {
	ID          string    `json:"id"`
	RequestText string    `json:"requestText"`
	DraftText   string    `json:"draftText"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}
