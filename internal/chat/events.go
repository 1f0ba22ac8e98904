package chat

// SSE payloads for the chat stream. The client discriminates frames by
// field presence rather than an envelope, so each type carries exactly
// the fields its frame shape requires.

// AskPreferenceEvent asks the client to render an onboarding question.
type AskPreferenceEvent struct {
	Action     string `json:"action"`
	Question   string `json:"question"`
	QuestionID string `json:"questionId"`
}

// GeneratingEvent tells the client the companion introduction is being
// composed so it can show a progress state.
type GeneratingEvent struct {
	Action string `json:"action"`
}

// FinalUpdateEvent carries the complete reply text for the request.
// Image is always null here; images arrive in their own frame.
type FinalUpdateEvent struct {
	FinalUpdate bool    `json:"final_update"`
	Text        string  `json:"text"`
	Image       *string `json:"image"`
}

// NewImageEvent delivers a generated image URL as its own message.
type NewImageEvent struct {
	NewImageMessage bool   `json:"new_image_message"`
	Image           string `json:"image"`
}

// ErrorEvent is an in-band error frame. The stream still terminates
// normally after one of these.
type ErrorEvent struct {
	Error string `json:"error"`
}

const (
	actionAskPreference = "ask_preference"
	actionGenerating    = "generating_flirt"
)

func askPreference(q Question) AskPreferenceEvent {
	return AskPreferenceEvent{Action: actionAskPreference, Question: q.Text, QuestionID: q.ID}
}
