package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Fixed in-band strings. Failures never surface as transport errors; they
// are absorbed into the companion's own voice.
const (
	fallbackReply      = "I'm here! What would you like to talk about? 💕"
	introKickoff       = "Introduce yourself to me now, and ask me about my interests."
	apologyForgotLooks = " I'd love to show you, but I can't quite picture myself right now... ask me again in a bit? 😳"
	apologyImageFail   = " I tried to snap a picture for you, but it didn't come out right. I'll try again soon! 😘"
	apologyStream      = "Sorry, my thoughts got a little scrambled just now... could you say that again? 💕"
)

// Recorder archives generated images. Implementations are best-effort;
// a nil Recorder disables archiving.
type Recorder interface {
	RecordImage(ctx context.Context, kind, prompt, url string)
}

// Image archive kinds.
const (
	ImageKindIntro = "intro"
	ImageKindChat  = "chat"
)

// routeKind is the closed set of ways a request can be served. The route
// is decided once, at entry, and drives the whole stream.
type routeKind int

const (
	routeBootstrap routeKind = iota
	routeAnswer
	routeChat
	routeMalformed
)

type route struct {
	kind   routeKind
	prompt string // effective chat prompt, routeChat only
}

// classify decides the route for a request. Answer submissions only count
// as such while onboarding is still in progress; once the companion has
// introduced itself a stray answer field is just another chat message.
func classify(req Request) route {
	past := PastOnboarding(req.Messages)
	switch {
	case !past && req.Answer != "" && req.QuestionID != "":
		return route{kind: routeAnswer}
	case req.Prompt != "":
		return route{kind: routeChat, prompt: req.Prompt}
	case past && req.Answer != "":
		return route{kind: routeChat, prompt: req.Answer}
	case len(req.Messages) == 0 && req.Answer == "" && req.QuestionID == "":
		return route{kind: routeBootstrap}
	default:
		return route{kind: routeMalformed}
	}
}

// Orchestrator drives one chat request from classification to the last
// event. It is stateless and safe for concurrent use.
type Orchestrator struct {
	model    ModelClient
	image    ImageClient
	recorder Recorder
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators. recorder may be
// nil.
func NewOrchestrator(model ModelClient, image ImageClient, recorder Recorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{model: model, image: image, recorder: recorder, logger: logger}
}

// Run serves one request, emitting the ordered event sequence to sink:
// at most one ask_preference or generating_flirt, then at most one
// final_update, then at most one new_image_message. The transport writes
// the terminal marker after Run returns. A non-nil error means the sink
// rejected a write (client gone); everything else is absorbed in-band.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) error {
	switch r := classify(req); r.kind {
	case routeBootstrap:
		return sink.Send(askPreference(FirstQuestion()))
	case routeAnswer:
		return o.runAnswer(ctx, req, sink)
	case routeChat:
		return o.runChat(ctx, req, r.prompt, sink)
	default:
		o.logger.Warn("malformed chat request, restarting onboarding",
			"history_len", len(req.Messages))
		return o.askFirst(req.Messages, sink)
	}
}

// askFirst re-emits the opening question unless the snapshot already
// opens with it, in which case emitting again would duplicate it on the
// client and the stream just terminates.
func (o *Orchestrator) askFirst(history []Turn, sink Sink) error {
	if opensWithFirstQuestion(history) {
		return nil
	}
	return sink.Send(askPreference(FirstQuestion()))
}

func (o *Orchestrator) runAnswer(ctx context.Context, req Request, sink Sink) error {
	if len(req.Messages) == 0 {
		// An answer with no history means the client lost its state.
		return sink.Send(askPreference(FirstQuestion()))
	}
	next, ok := NextQuestion(req.QuestionID)
	if ok {
		if next.ID == FirstQuestion().ID {
			return o.askFirst(req.Messages, sink)
		}
		return sink.Send(askPreference(next))
	}

	prefs := CollectPreferences(req.Messages, req.Answer, req.QuestionID)
	if missing, incomplete := prefs.FirstMissing(); incomplete {
		o.logger.Warn("onboarding finished with missing answers, re-asking",
			"question_id", missing.ID)
		if missing.ID == FirstQuestion().ID {
			return o.askFirst(req.Messages, sink)
		}
		return sink.Send(askPreference(missing))
	}

	if err := sink.Send(GeneratingEvent{Action: actionGenerating}); err != nil {
		return err
	}

	text := o.generate(ctx, Synthesize(prefs), nil, introKickoff)
	url := o.generateImage(ctx, ImageKindIntro, introImagePrompt(prefs.Appearance()))
	if url == "" {
		text += apologyImageFail
	}
	if err := sink.Send(FinalUpdateEvent{FinalUpdate: true, Text: text}); err != nil {
		return err
	}
	if url != "" {
		return sink.Send(NewImageEvent{NewImageMessage: true, Image: url})
	}
	return nil
}

func (o *Orchestrator) runChat(ctx context.Context, req Request, prompt string, sink Sink) error {
	prefs := CollectPreferences(req.Messages, "", "")
	reply := o.generate(ctx, Synthesize(prefs), ReplayHistory(req.Messages), prompt)

	text, directive := ExtractImageDirective(reply)
	url := ""
	if directive != "" {
		if appearance := prefs.Appearance(); appearance == "" {
			text += apologyForgotLooks
		} else {
			first := !hasGeneratedImage(req.Messages)
			url = o.generateImage(ctx, ImageKindChat, chatImagePrompt(appearance, directive, first))
			if url == "" {
				text += apologyImageFail
			}
		}
	}
	if strings.TrimSpace(text) == "" {
		text = fallbackReply
	}
	if err := sink.Send(FinalUpdateEvent{FinalUpdate: true, Text: text}); err != nil {
		return err
	}
	if url != "" {
		return sink.Send(NewImageEvent{NewImageMessage: true, Image: url})
	}
	return nil
}

// generate runs one model round trip and returns the full reply text.
// The stream is buffered in full before anything is shown so that image
// directives can be stripped; a partial stream that errors keeps what
// arrived and appends an apology.
func (o *Orchestrator) generate(ctx context.Context, instruction string, history []ModelTurn, prompt string) string {
	session, err := o.model.StartSession(instruction, history)
	if err != nil {
		o.logger.Error("failed to start model session", "error", err)
		return apologyStream
	}

	var b strings.Builder
	for chunk, err := range session.SendStream(ctx, prompt) {
		if err != nil {
			o.logger.Error("model stream failed", "error", err, "partial_len", b.Len())
			if b.Len() == 0 {
				return apologyStream
			}
			return fmt.Sprintf("%s %s", strings.TrimSpace(b.String()), apologyStream)
		}
		b.WriteString(chunk)
	}
	if strings.TrimSpace(b.String()) == "" {
		return fallbackReply
	}
	return strings.TrimSpace(b.String())
}

// generateImage calls the image adapter and archives the result. Any
// failure is logged and reported as an empty URL.
func (o *Orchestrator) generateImage(ctx context.Context, kind, prompt string) string {
	url, err := o.image.Generate(ctx, prompt, "")
	if err != nil {
		o.logger.Error("image generation failed", "kind", kind, "error", err)
		return ""
	}
	if url == "" {
		o.logger.Warn("image generation returned no result", "kind", kind)
		return ""
	}
	if o.recorder != nil {
		o.recorder.RecordImage(ctx, kind, prompt, url)
	}
	return url
}
