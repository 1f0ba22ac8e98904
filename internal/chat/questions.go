package chat

// Question is one step of the preference onboarding sequence.
type Question struct {
	ID   string
	Text string
}

// Preference question IDs, in onboarding order.
const (
	QuestionUserName      = "userName"
	QuestionPartnerSex    = "partnerSex"
	QuestionPartnerLooks  = "partnerLooks"
	QuestionPartnerTraits = "partnerTraits"
	QuestionUserInterests = "userInterests"
)

// questions is the fixed onboarding script. The first question's text is
// matched verbatim by the mobile client to suppress duplicate renders, so
// it must keep the "First, what's your name?" phrasing.
var questions = []Question{
	{QuestionUserName, "Hi! I'm so excited to meet you. Before we start, I'd love to get to know you a little. First, what's your name?"},
	{QuestionPartnerSex, "Lovely! And who would you like your companion to be, a woman or a man?"},
	{QuestionPartnerLooks, "Great choice. How should they look? Describe their appearance however you like."},
	{QuestionPartnerTraits, "And what kind of personality should they have? Sweet, witty, bold, caring..."},
	{QuestionUserInterests, "Last one! What are you into? Hobbies, passions, anything you love talking about."},
}

// FirstQuestion returns the opening question of the sequence.
func FirstQuestion() Question {
	return questions[0]
}

// Questions returns the full onboarding sequence in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// NextQuestion returns the question following id. ok is false when id is
// the final question. An id that is not part of the sequence at all is a
// client desync; the sequence restarts at the first question.
func NextQuestion(id string) (next Question, ok bool) {
	for i, q := range questions {
		if q.ID != id {
			continue
		}
		if i+1 < len(questions) {
			return questions[i+1], true
		}
		return Question{}, false
	}
	return questions[0], true
}

// questionByID reports the question for id, if it exists.
func questionByID(id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// isQuestionText reports whether text is one of the fixed question
// strings. Assistant turns matching a question are onboarding turns, not
// companion conversation.
func isQuestionText(text string) bool {
	for _, q := range questions {
		if q.Text == text {
			return true
		}
	}
	return false
}
