package domain

import "context"

// KeyValueStore is client-durable key/value storage (drafts live here).
type KeyValueStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ImageUploader sends a captured image somewhere that describes it and
// returns the text of the response.
type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, filename string) (string, error)
}

// Responder submits user text and produces a (streamed) assistant response.
type Responder interface {
	Submit(ctx context.Context, text string) error
	Stop()
	IsStreaming() bool
}

// MessageLog is the ordered chat timeline owned by the host.
type MessageLog interface {
	Append(msg Message)
	Messages() []Message
	Sanitize()
}

// ChatStreamer streams an assistant reply for a conversation history.
// onDelta is called once per text chunk, in order.
type ChatStreamer interface {
	StreamChat(ctx context.Context, history []Message, onDelta func(string)) error
}

// Speaker synthesizes and plays an utterance.
type Speaker interface {
	Speak(ctx context.Context, u Utterance) error
}

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
