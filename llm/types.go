package llm

// Message is a single chat message in a request body.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of sync, async and stream chat calls.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Stream      bool      `json:"stream"`
	// DoSample is only sent on streaming calls.
	DoSample bool `json:"do_sample,omitempty"`
}

// VisionRequest is the body of an image understanding call.
type VisionRequest struct {
	Model    string          `json:"model"`
	Messages []VisionMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// VisionMessage carries text and an image reference in one user turn.
type VisionMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is either a text part or an image_url part.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points at the image to describe.
type ImageURL struct {
	URL string `json:"url"`
}

// ImageRequest is the body of an image generation call.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// TaskHandle identifies a submitted async task. It lives for one invocation.
type TaskHandle struct {
	TaskID string
	// Status is the task_status reported at submission, if any.
	Status string
}

// Content part types.
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Task states reported by the async result endpoint.
const (
	StatusSuccess    = "SUCCESS"
	StatusFail       = "FAIL"
	StatusProcessing = "PROCESSING"
)
