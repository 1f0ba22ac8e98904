package chat_test

import (
	"reflect"
	"testing"

	"github.com/amorahq/amora/internal/chat"
)

func onboardingTurns() []chat.Turn {
	var turns []chat.Turn
	answers := []string{"Sam", "a woman", "long red hair, green eyes", "witty and caring", "hiking and sci-fi"}
	for i, q := range chat.Questions() {
		turns = append(turns,
			chat.Turn{Assistant: q.Text},
			chat.Turn{User: answers[i]},
		)
	}
	return turns
}

func TestPastOnboarding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []chat.Turn
		want    bool
	}{
		{"empty", nil, false},
		{"questions only", onboardingTurns(), false},
		{
			"introduction present",
			append(onboardingTurns(), chat.Turn{Assistant: "Hi Sam, I'm Ruby!"}),
			true,
		},
		{
			"user turns only",
			[]chat.Turn{{User: "hello?"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := chat.PastOnboarding(tt.history); got != tt.want {
				t.Errorf("PastOnboarding() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReplayHistory(t *testing.T) {
	t.Parallel()

	history := append(onboardingTurns(),
		chat.Turn{Assistant: "Hi Sam, I'm Ruby! What are you into?"},
		chat.Turn{Image: "https://img.example/selfie.png"},
		chat.Turn{User: "Tell me about your day"},
		chat.Turn{Assistant: "It was lovely!"},
	)

	got := chat.ReplayHistory(history)
	want := []chat.ModelTurn{
		{Role: chat.RoleModel, Text: "Hi Sam, I'm Ruby! What are you into?"},
		{Role: chat.RoleUser, Text: "Tell me about your day"},
		{Role: chat.RoleModel, Text: "It was lovely!"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReplayHistory() = %+v, want %+v", got, want)
	}
}

func TestReplayHistoryBeforeIntroduction(t *testing.T) {
	t.Parallel()

	if got := chat.ReplayHistory(onboardingTurns()); got != nil {
		t.Errorf("ReplayHistory(onboarding only) = %+v, want nil", got)
	}
}
