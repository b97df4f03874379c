package llm

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/httpclient/sse"
	"github.com/kbukum/glmkit/logger"
)

// DoneMarker is the data payload that terminates a stream.
const DoneMarker = "[DONE]"

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamDecoder accumulates the text of one streamed reply. Feed it event
// data in arrival order.
type StreamDecoder struct {
	buf  strings.Builder
	done bool
	log  *logger.Logger
}

// NewStreamDecoder creates a decoder. A nil logger uses the global one.
func NewStreamDecoder(log *logger.Logger) *StreamDecoder {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &StreamDecoder{log: log.WithComponent("stream")}
}

// Feed consumes one data line, with or without its "data:" prefix, and
// returns the cleaned fragment it carried. done reports the end-of-stream
// marker; data fed after it is ignored. Fragments that do not parse are logged and
// skipped.
func (d *StreamDecoder) Feed(data string) (fragment string, done bool) {
	if d.done {
		return "", true
	}
	data = strings.TrimSpace(data)
	data = strings.TrimSpace(strings.TrimPrefix(data, "data:"))
	if data == "" {
		return "", false
	}
	if data == DoneMarker {
		d.done = true
		return "", true
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		skip := errors.ParseSkip(data, err)
		d.log.Warn(skip.Message, logger.Fields(
			"code", string(skip.Code),
			logger.FieldError, err.Error(),
		))
		return "", false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}

	fragment = CleanupFragment(chunk.Choices[0].Delta.Content)
	d.buf.WriteString(fragment)
	return fragment, false
}

// Text returns everything accumulated so far.
func (d *StreamDecoder) Text() string { return d.buf.String() }

// Done reports whether the end-of-stream marker was seen.
func (d *StreamDecoder) Done() bool { return d.done }

// DecodeStream reads a complete SSE body and returns the accumulated text.
// onFragment, when set, sees every non-empty fragment as it arrives.
func DecodeStream(r io.Reader, onFragment func(string)) (string, error) {
	reader := sse.NewReader(io.NopCloser(r))
	return ReadStream(context.Background(), reader, NewStreamDecoder(nil), onFragment)
}

// ReadStream drains reader into d until the end marker, the end of the body
// or cancellation of ctx. The text read so far is returned with any error.
func ReadStream(ctx context.Context, reader sse.Reader, d *StreamDecoder, onFragment func(string)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return d.Text(), err
		}
		event, err := reader.Next()
		if err == io.EOF {
			return d.Text(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return d.Text(), ctxErr
			}
			return d.Text(), errors.Transport("stream", err)
		}

		// An event may carry several data lines; each is its own chunk.
		for _, line := range strings.Split(event.Data, "\n") {
			fragment, done := d.Feed(line)
			if fragment != "" && onFragment != nil {
				onFragment(fragment)
			}
			if done {
				return d.Text(), nil
			}
		}
	}
}
