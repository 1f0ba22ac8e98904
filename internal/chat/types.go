// Package chat implements the conversation orchestration for the companion
// chat flow: the onboarding question sequence, persona synthesis from the
// client-supplied history, image directive extraction, and the per-request
// event stream driving all of it. The server holds no session state; every
// request carries the full conversation snapshot and state is re-derived
// from scratch.
package chat

import (
	"context"
	"iter"
)

// Turn is one message unit in the client-supplied conversation history.
// Exactly one of User/Assistant/Image is the primary payload, though an
// assistant turn may carry both text and an image reference. The history
// is an ordered, immutable snapshot; the server never mutates it.
type Turn struct {
	User      string `json:"user,omitempty"`
	Assistant string `json:"assistant,omitempty"`
	Image     string `json:"image,omitempty"`
	ID        string `json:"_id,omitempty"`
}

// Request is the body of a chat request. Which fields are set determines
// the route: see classify.
type Request struct {
	Messages   []Turn `json:"messages"`
	Prompt     string `json:"prompt,omitempty"`
	Answer     string `json:"answer,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

// Role identifies the speaker of a model history entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ModelTurn is one entry of the replayed history handed to the language
// model when re-priming a session.
type ModelTurn struct {
	Role Role
	Text string
}

// ModelSession is a primed language-model session. Sessions are one-shot:
// a single SendStream call per session.
type ModelSession interface {
	// SendStream sends the prompt and yields text chunks as they arrive.
	// The sequence is finite and not restartable; a non-nil error ends it.
	SendStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// ModelClient starts language-model sessions.
type ModelClient interface {
	StartSession(systemInstruction string, history []ModelTurn) (ModelSession, error)
}

// ImageClient generates an image for a prompt. An empty URL with a nil
// error is a soft failure (the provider declined without a hard error).
type ImageClient interface {
	Generate(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// Sink receives the ordered events for one request's stream. The transport
// layer owns the terminal marker; the orchestrator only emits payloads.
type Sink interface {
	Send(event any) error
}
