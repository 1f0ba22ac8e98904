package chat

// PastOnboarding reports whether the conversation has moved beyond the
// question sequence: any assistant turn whose text is not one of the
// fixed question strings means the companion has already spoken.
func PastOnboarding(history []Turn) bool {
	_, ok := introductionBoundary(history)
	return ok
}

// introductionBoundary returns the index of the first assistant turn that
// is not an onboarding question, i.e. the companion's introduction.
func introductionBoundary(history []Turn) (int, bool) {
	for i, t := range history {
		if t.Assistant != "" && !isQuestionText(t.Assistant) {
			return i, true
		}
	}
	return 0, false
}

// ReplayHistory rebuilds the model-facing conversation from the snapshot:
// everything from the introduction onward, with onboarding turns and
// image-only side-channel turns dropped. User text maps to the user role
// and assistant text to the model role.
func ReplayHistory(history []Turn) []ModelTurn {
	start, ok := introductionBoundary(history)
	if !ok {
		return nil
	}
	var out []ModelTurn
	for _, t := range history[start:] {
		switch {
		case t.Assistant != "":
			out = append(out, ModelTurn{Role: RoleModel, Text: t.Assistant})
		case t.User != "":
			out = append(out, ModelTurn{Role: RoleUser, Text: t.User})
		}
	}
	return out
}

// hasGeneratedImage reports whether any turn in the snapshot already
// carries an image, which makes the next one a follow-up rather than the
// conversation's first.
func hasGeneratedImage(history []Turn) bool {
	for _, t := range history {
		if t.Image != "" {
			return true
		}
	}
	return false
}

// opensWithFirstQuestion reports whether the snapshot's first assistant
// turn is already the opening question, in which case re-emitting it
// would duplicate it on the client.
func opensWithFirstQuestion(history []Turn) bool {
	for _, t := range history {
		if t.Assistant != "" {
			return t.Assistant == questions[0].Text
		}
		if t.User != "" {
			return false
		}
	}
	return false
}
