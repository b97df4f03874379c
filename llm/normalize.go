package llm

import (
	"encoding/json"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/kbukum/glmkit/errors"
)

// Shape errors name the first field missing from a response body. They are
// returned wrapped in a RESPONSE_SHAPE_ERROR.
var (
	ErrChoicesNotFound = stderrors.New("choices not found")
	ErrChoiceNotFound  = stderrors.New("choice not found")
	ErrMessageNotFound = stderrors.New("message not found")
	ErrContentNotFound = stderrors.New("content not found")

	ErrDataNotFound  = stderrors.New("data not found")
	ErrImageNotFound = stderrors.New("image not found")
	ErrURLNotFound   = stderrors.New("url not found")

	ErrTaskIDNotFound     = stderrors.New("task id not found")
	ErrTaskStatusNotFound = stderrors.New("task_status not found")
)

type completionBody struct {
	Choices *[]struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageBody struct {
	Data *[]*struct {
		URL *string `json:"url"`
	} `json:"data"`
}

type taskBody struct {
	ID         string `json:"id"`
	TaskStatus string `json:"task_status"`
}

// ParseCompletion extracts choices[0].message.content from a sync or async
// result body and cleans it.
func ParseCompletion(body []byte) (string, error) {
	var b completionBody
	if err := json.Unmarshal(body, &b); err != nil {
		return "", errors.ResponseShape("completion", err)
	}
	switch {
	case b.Choices == nil:
		return "", errors.ResponseShape("completion", ErrChoicesNotFound)
	case len(*b.Choices) == 0:
		return "", errors.ResponseShape("completion", ErrChoiceNotFound)
	case (*b.Choices)[0].Message == nil:
		return "", errors.ResponseShape("completion", ErrMessageNotFound)
	case (*b.Choices)[0].Message.Content == nil:
		return "", errors.ResponseShape("completion", ErrContentNotFound)
	}
	return Cleanup(*(*b.Choices)[0].Message.Content), nil
}

// ParseImage extracts data[0].url from an image generation body.
func ParseImage(body []byte) (string, error) {
	var b imageBody
	if err := json.Unmarshal(body, &b); err != nil {
		return "", errors.ResponseShape("image", err)
	}
	switch {
	case b.Data == nil:
		return "", errors.ResponseShape("image", ErrDataNotFound)
	case len(*b.Data) == 0 || (*b.Data)[0] == nil:
		return "", errors.ResponseShape("image", ErrImageNotFound)
	case (*b.Data)[0].URL == nil:
		return "", errors.ResponseShape("image", ErrURLNotFound)
	}
	return Cleanup(*(*b.Data)[0].URL), nil
}

// ParseTaskID reads the task id from an async submission body. When the id
// is missing the error carries whatever id and task_status the API did send.
func ParseTaskID(body []byte) (TaskHandle, error) {
	var b taskBody
	if err := json.Unmarshal(body, &b); err != nil {
		return TaskHandle{}, errors.ResponseShape("async submit", err)
	}
	if b.ID == "" || strings.EqualFold(b.TaskStatus, StatusFail) {
		return TaskHandle{}, errors.ResponseShape("async submit", ErrTaskIDNotFound).
			WithDetail("id", b.ID).
			WithDetail("task_status", b.TaskStatus)
	}
	return TaskHandle{TaskID: b.ID, Status: b.TaskStatus}, nil
}

// TaskStatus reads task_status from an async result body.
func TaskStatus(body []byte) (string, error) {
	var b taskBody
	if err := json.Unmarshal(body, &b); err != nil {
		return "", errors.ResponseShape("async result", err)
	}
	if b.TaskStatus == "" {
		return "", errors.ResponseShape("async result", ErrTaskStatusNotFound).WithDetail("id", b.ID)
	}
	return b.TaskStatus, nil
}

var unicodeEscape = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)

type substitution struct{ old, new string }

// cleanupSteps run in order on whole replies; later steps see the output of
// earlier ones.
var cleanupSteps = []substitution{
	{`"`, ""},
	{`\n\n`, "\n"},
	{`\nn\nn`, "\n"},
	{`\\nn`, "\n"},
	{`\n`, "\n"},
	{`\nn`, "\n"},
	{`\\`, ""},
}

// streamCleanupSteps run in order on each streamed fragment. The order
// differs from cleanupSteps: `\nn` collapses before `\\n`, and any
// remaining single backslash is dropped.
var streamCleanupSteps = []substitution{
	{`"`, ""},
	{`\n\n`, "\n"},
	{`\nn`, "\n"},
	{`\\n`, "\n"},
	{`\\nn`, "\n"},
	{`\`, ""},
}

// Cleanup decodes \uXXXX escapes and then rewrites the literal quote and
// backslash sequences left in model output. Text without quotes or
// backslashes is returned unchanged.
func Cleanup(s string) string {
	return substitute(DecodeUnicodeEscapes(s), cleanupSteps)
}

// CleanupFragment is Cleanup for streamed fragments, which use their own
// substitution order.
func CleanupFragment(s string) string {
	return substitute(DecodeUnicodeEscapes(s), streamCleanupSteps)
}

func substitute(s string, steps []substitution) string {
	for _, step := range steps {
		s = strings.ReplaceAll(s, step.old, step.new)
	}
	return s
}

// DecodeUnicodeEscapes replaces literal \uXXXX sequences with the characters
// they encode. Adjacent high and low surrogates are combined; a lone
// surrogate is left as written.
func DecodeUnicodeEscapes(s string) string {
	locs := unicodeEscape.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for i := 0; i < len(locs); i++ {
		start, end := locs[i][0], locs[i][1]
		r := hexRune(s[start+2 : end])

		if utf16.IsSurrogate(r) {
			if i+1 < len(locs) && locs[i+1][0] == end {
				next := hexRune(s[locs[i+1][0]+2 : locs[i+1][1]])
				if pair := utf16.DecodeRune(r, next); pair != 0xFFFD {
					b.WriteString(s[last:start])
					b.WriteRune(pair)
					last = locs[i+1][1]
					i++
					continue
				}
			}
			continue
		}

		b.WriteString(s[last:start])
		b.WriteRune(r)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func hexRune(h string) rune {
	v, _ := strconv.ParseUint(h, 16, 32)
	return rune(v)
}
