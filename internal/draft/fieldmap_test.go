package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lmxcli/internal/models"
)

func TestIsChatPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/v1/chat/completions", true},
		{"/chat/completions", true},
		{"/v1/chat/completions/", true},
		{"/v1/completions", false},
		{"/v1/embeddings", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsChatPath(tt.path), "path %q", tt.path)
	}
}

func TestDefaultFieldMappingChatPath(t *testing.T) {
	fm := DefaultFieldMapping("/v1/chat/completions")

	assert.Equal(t, "messages.0.content", fm.Prompt)
	assert.Equal(t, "json", fm.DataFormat)
	assert.Equal(t, "data:", fm.StreamPrefix)
	assert.Equal(t, "[DONE]", fm.StopFlag)
	assert.Equal(t, "choices.0.delta.content", fm.Content)
	assert.Equal(t, "choices.0.delta.reasoning_content", fm.ReasoningContent)
}

func TestDefaultFieldMappingOtherPaths(t *testing.T) {
	for _, path := range []string{"/v1/completions", "/v1/embeddings", "/custom", ""} {
		fm := DefaultFieldMapping(path)
		assert.Equal(t, models.FieldMapping{DataFormat: "json"}, fm, "path %q", path)
	}
}
