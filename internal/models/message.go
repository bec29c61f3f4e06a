package models

// Kind identifies who (or what) produced a chat message.
type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindSystem    Kind = "system"
	KindError     Kind = "error"
)

// Message is a single entry in the conversation transcript.
// Messages are append-only and never mutated after creation.
type Message struct {
	Kind Kind
	Text string
}
