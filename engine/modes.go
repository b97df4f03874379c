package engine

import (
	"context"

	"github.com/kbukum/glmkit/dispatch"
	"github.com/kbukum/glmkit/history"
	"github.com/kbukum/glmkit/llm"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/observability"
)

// chat handles the sync, async and stream modes, which share the chat
// section, the history window and the append policy.
func (e *Engine) chat(ctx context.Context, tok string, cmd dispatch.Command) (string, error) {
	model, err := e.cfg.Chat(e.family)
	if err != nil {
		return "", err
	}
	prior, err := e.store.Last(ctx, e.cfg.History.Window)
	if err != nil {
		return "", err
	}
	req, err := llm.BuildChatRequest(model, prior, cmd.Payload, cmd.Mode == dispatch.Stream)
	if err != nil {
		return "", err
	}

	var text string
	switch cmd.Mode {
	case dispatch.Async:
		text, err = e.async(ctx, tok, req)
	case dispatch.Stream:
		text, err = e.stream(ctx, tok, cmd.Mode, req)
	default:
		var raw []byte
		raw, err = e.client.Complete(ctx, tok, req)
		if err == nil {
			text, err = llm.ParseCompletion(raw)
		}
	}
	if err != nil {
		return "", err
	}

	e.remember(ctx,
		history.Turn{Role: model.UserRole, Content: cmd.Payload},
		history.Turn{Role: model.AssistantRole, Content: text},
	)
	return text, nil
}

func (e *Engine) async(ctx context.Context, tok string, req llm.ChatRequest) (string, error) {
	handle, err := e.client.Submit(ctx, tok, req)
	if err != nil {
		return "", err
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanPoll)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTaskID, handle.TaskID)

	attempts := 0
	poller := e.client.Poller(tok, llm.Poller{
		Interval:    e.cfg.Poll.Interval,
		MaxAttempts: e.cfg.Poll.MaxAttempts,
		Deadline:    e.cfg.Poll.Deadline,
	})
	fetch := poller.Fetch
	poller.Fetch = func(ctx context.Context, h llm.TaskHandle) ([]byte, error) {
		attempts++
		return fetch(ctx, h)
	}

	body, err := poller.Poll(ctx, handle)
	e.metrics.RecordPollAttempts(ctx, attempts)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", err
	}
	return llm.ParseCompletion(body)
}

func (e *Engine) stream(ctx context.Context, tok string, mode dispatch.Mode, body any) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStream)
	defer span.End()

	fragments := 0
	text, err := e.client.Stream(ctx, tok, body, func(f string) {
		fragments++
		if e.onFragment != nil {
			e.onFragment(f)
		}
	})
	observability.SetSpanAttribute(ctx, observability.AttrFragments, fragments)
	e.metrics.RecordFragments(ctx, mode.String(), fragments)
	if err != nil {
		observability.SetSpanError(ctx, err)
		e.log.WithContext(ctx).Debug("stream ended early", logger.Fields(
			"partial_length", len(text),
			"fragments", fragments,
		))
		return "", err
	}
	return text, nil
}

func (e *Engine) describeImage(ctx context.Context, tok, payload string) (string, error) {
	model, err := e.cfg.Vision()
	if err != nil {
		return "", err
	}
	text, err := e.stream(ctx, tok, dispatch.Vision, llm.BuildVisionRequest(model, payload))
	if err != nil {
		return "", err
	}
	e.remember(ctx,
		history.Turn{Role: model.UserRole, Content: payload},
		history.Turn{Role: defaultAssistantRole, Content: text},
	)
	return text, nil
}

// generateImage never touches the history log; image prompts have never
// been part of the conversation context.
func (e *Engine) generateImage(ctx context.Context, tok, payload string) (string, error) {
	model, err := e.cfg.Image()
	if err != nil {
		return "", err
	}
	return e.client.Generate(ctx, tok, llm.BuildImageRequest(model, payload))
}

// remember appends a finished exchange. Empty replies are not recorded. A
// failed append is logged; the reply itself already succeeded.
func (e *Engine) remember(ctx context.Context, user, assistant history.Turn) {
	if assistant.Content == "" {
		return
	}
	if err := e.store.AppendExchange(ctx, user, assistant); err != nil {
		e.log.WithContext(ctx).Warn("history append failed", logger.MergeWithError(logger.Fields(
			logger.FieldPath, e.store.Path(),
		), err))
	}
}
