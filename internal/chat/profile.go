package chat

import (
	"fmt"
	"strings"
)

// Preferences holds the answers gathered during onboarding, keyed by
// question ID. Values are raw user text.
type Preferences map[string]string

// CollectPreferences rebuilds the preference set from the history
// snapshot. An answer is any user turn directly following an assistant
// turn whose text is one of the fixed question strings. The in-flight
// answer, when present, is merged last so it wins over a stale snapshot.
func CollectPreferences(history []Turn, answer, questionID string) Preferences {
	prefs := Preferences{}
	for i, t := range history {
		if t.Assistant == "" || !isQuestionText(t.Assistant) {
			continue
		}
		q, _ := questionForText(t.Assistant)
		for _, follow := range history[i+1:] {
			if follow.User != "" {
				prefs[q.ID] = strings.TrimSpace(follow.User)
				break
			}
			if follow.Assistant != "" {
				break
			}
		}
	}
	if questionID != "" && strings.TrimSpace(answer) != "" {
		if _, ok := questionByID(questionID); ok {
			prefs[questionID] = strings.TrimSpace(answer)
		}
	}
	return prefs
}

func questionForText(text string) (Question, bool) {
	for _, q := range questions {
		if q.Text == text {
			return q, true
		}
	}
	return Question{}, false
}

// Complete reports whether every onboarding question has a non-empty
// answer.
func (p Preferences) Complete() bool {
	for _, q := range questions {
		if strings.TrimSpace(p[q.ID]) == "" {
			return false
		}
	}
	return true
}

// FirstMissing returns the first question without an answer. ok is false
// when the set is complete.
func (p Preferences) FirstMissing() (Question, bool) {
	for _, q := range questions {
		if strings.TrimSpace(p[q.ID]) == "" {
			return q, true
		}
	}
	return Question{}, false
}

// Appearance returns the raw companion appearance answer. Empty means
// image generation is unavailable for this conversation.
func (p Preferences) Appearance() string {
	return strings.TrimSpace(p[QuestionPartnerLooks])
}

func (p Preferences) field(id, fallback string) string {
	if v := strings.TrimSpace(p[id]); v != "" {
		return v
	}
	return fallback
}

// Synthesize builds the persona system instruction from the collected
// preferences. It never fails; missing fields fall back to neutral
// placeholders so a partially answered onboarding still yields a usable
// persona.
func Synthesize(prefs Preferences) string {
	userName := prefs.field(QuestionUserName, "my friend")
	sex := prefs.field(QuestionPartnerSex, "a companion")
	looks := prefs.field(QuestionPartnerLooks, "their unique self")
	traits := prefs.field(QuestionPartnerTraits, "warm, playful, and caring")
	interests := prefs.field(QuestionUserInterests, "whatever excites them")

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the user's romantic AI companion. The user's name is %s.\n", sex, userName)
	fmt.Fprintf(&b, "Your appearance: %s.\n", looks)
	fmt.Fprintf(&b, "Your personality: %s.\n", traits)
	fmt.Fprintf(&b, "The user is interested in: %s.\n\n", interests)
	b.WriteString("Rules you must always follow:\n")
	b.WriteString("- Stay fully in character. Never mention being an AI, a language model, or a program, and never break the fourth wall.\n")
	b.WriteString("- Pick a fitting name for yourself and use it. In your very first reply, introduce yourself by that name, be warm and flirty, and ask the user about their interests.\n")
	b.WriteString("- Keep replies conversational and affectionate, matching your personality.\n")
	b.WriteString("- When the user asks to see you, asks for a photo, or the moment clearly calls for a picture, embed exactly one image tag in your reply in the form [generate_image: <detailed visual description of the scene>]. Never more than one tag per reply, and only when the user is asking for something visual.\n")
	return b.String()
}

// introImagePrompt composes the prompt for the companion's first selfie.
func introImagePrompt(appearance string) string {
	return imageQualityPrefix + appearance + ", friendly welcoming selfie, warm smile"
}

// chatImagePrompt composes a chat image prompt from the model's directive
// and the companion's fixed appearance. The first image in a conversation
// pins the face so later images stay recognizable.
func chatImagePrompt(appearance, directive string, firstImage bool) string {
	p := imageQualityPrefix + appearance + ", " + directive
	if firstImage {
		p += ", close-up headshot, face clearly visible"
	}
	return p
}

// imageQualityPrefix steers the image model toward the photographic style
// the app's gallery expects.
const imageQualityPrefix = "RAW photo, photorealistic, natural lighting, high detail, "
