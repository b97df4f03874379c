package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kbukum/glmkit/config"
	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/history"
	"github.com/kbukum/glmkit/logger"
	"github.com/kbukum/glmkit/validation"
)

// visionInput splits "<text>@<image-url>". The url ends at the next '@'.
var visionInput = regexp.MustCompile(`([^@]+)@([^@]+)`)

// BuildChatRequest composes a chat body. The user message folds the prior
// turns and the new input into one comma-joined sequence of JSON turn
// objects, the context format the remote model has always been given.
func BuildChatRequest(cfg config.ChatModel, prior []history.Turn, input string, stream bool) (ChatRequest, error) {
	if err := validation.ValidateSection("chat model", cfg); err != nil {
		return ChatRequest{}, err
	}

	turns := make([]history.Turn, 0, len(prior)+1)
	turns = append(turns, prior...)
	turns = append(turns, history.Turn{Role: cfg.UserRole, Content: input})
	content, err := foldTurns(turns)
	if err != nil {
		return ChatRequest{}, errors.Internal(err)
	}

	req := ChatRequest{
		Model: cfg.LanguageModel,
		Messages: []Message{
			{Role: cfg.SystemRole, Content: strings.TrimSpace(cfg.SystemContent)},
			{Role: cfg.UserRole, Content: content},
		},
		MaxTokens:   *cfg.MaxTokens,
		Temperature: *cfg.Temperature,
		TopP:        *cfg.TopP,
		Stream:      stream,
	}
	if stream {
		req.DoSample = true
	}
	return req, nil
}

// BuildVisionRequest composes an image understanding body from
// "<text>@<image-url>". Input without an '@' still produces a request, with
// empty text and url.
func BuildVisionRequest(cfg config.VisionModel, input string) VisionRequest {
	var text, url string
	if m := visionInput.FindStringSubmatch(input); m != nil {
		text, url = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	} else {
		logger.WithComponent("llm").Warn("vision input has no <text>@<image-url> form", logger.Fields(
			logger.FieldMode, "vision",
		))
	}

	return VisionRequest{
		Model: cfg.Model,
		Messages: []VisionMessage{{
			Role: cfg.UserRole,
			Content: []ContentPart{
				{Type: PartText, Text: text},
				{Type: PartImageURL, ImageURL: &ImageURL{URL: url}},
			},
		}},
		Stream: true,
	}
}

// BuildImageRequest composes an image generation body.
func BuildImageRequest(cfg config.ImageModel, input string) ImageRequest {
	return ImageRequest{Model: cfg.Model, Prompt: input}
}

func foldTurns(turns []history.Turn) (string, error) {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(parts, ","), nil
}
