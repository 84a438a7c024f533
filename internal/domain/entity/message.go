package entity

import "time"

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Source records which backend produced a bot message.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// Message is a single conversation entry. Immutable once created,
// except for IsNew which flips to false after the display window.
type Message struct {
	ID                string       `json:"id"`
	Text              string       `json:"text"`
	Sender            Sender       `json:"sender"`
	Timestamp         time.Time    `json:"timestamp"`
	IsNew             bool         `json:"isNew"`
	MentionedProducts []ProductRef `json:"mentionedProducts,omitempty"`
	Source            Source       `json:"source,omitempty"`
}

// HistoryEntry is the stripped view of a message handed to downstream
// consumers (suggestion engine, prompt builder).
type HistoryEntry struct {
	Text   string
	Sender Sender
}
