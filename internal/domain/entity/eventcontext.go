package entity

import "strings"

// EventContext is the four-field structured brief collected before a
// conversation, used to bias generated responses. It is persisted only
// when complete; partial contexts never leave the collector form.
type EventContext struct {
	EventType    string `json:"eventType"`
	EventDate    string `json:"eventDate"`
	Budget       string `json:"budget"`
	LocationType string `json:"locationType"`
}

// Complete reports whether all four fields carry a non-blank value.
func (c EventContext) Complete() bool {
	return strings.TrimSpace(c.EventType) != "" &&
		strings.TrimSpace(c.EventDate) != "" &&
		strings.TrimSpace(c.Budget) != "" &&
		strings.TrimSpace(c.LocationType) != ""
}
