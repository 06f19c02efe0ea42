// Package draft owns the benchmark job draft: field-mapping defaults, the
// stepped form controller, and the validation rules that gate navigation,
// testing, and submission.
package draft

import (
	"strings"

	"lmxcli/internal/models"
)

// chatCompletionsSuffix matches the canonical chat-completion path on any
// API version prefix.
const chatCompletionsSuffix = "/chat/completions"

// IsChatPath reports whether an API path is the canonical chat-completion
// endpoint.
func IsChatPath(apiPath string) bool {
	return strings.HasSuffix(strings.TrimRight(apiPath, "/"), chatCompletionsSuffix)
}

// DefaultFieldMapping returns the default response-parsing configuration
// for an API path. The chat-completion path gets the standard OpenAI-style
// mapping; any other path gets an empty placeholder set to be filled in by
// hand.
func DefaultFieldMapping(apiPath string) models.FieldMapping {
	if IsChatPath(apiPath) {
		return models.FieldMapping{
			Prompt:           "messages.0.content",
			DataFormat:       "json",
			StreamPrefix:     "data:",
			StopFlag:         "[DONE]",
			Content:          "choices.0.delta.content",
			ReasoningContent: "choices.0.delta.reasoning_content",
		}
	}
	return models.FieldMapping{DataFormat: "json"}
}
