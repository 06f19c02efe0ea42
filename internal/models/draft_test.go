package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraftSeedsFixedHeaders(t *testing.T) {
	d := NewDraft()

	require.Len(t, d.Headers, 2)
	assert.Equal(t, "Content-Type", d.Headers[0].Name)
	assert.Equal(t, "application/json", d.Headers[0].Value)
	assert.True(t, d.Headers[0].Fixed)
	assert.Equal(t, "Authorization", d.Headers[1].Name)
	assert.NotEmpty(t, d.SessionID)
}

func TestRemoveHeaderKeepsFixedEntries(t *testing.T) {
	d := NewDraft()

	assert.False(t, d.RemoveHeader(0), "Content-Type is fixed")
	assert.Len(t, d.Headers, 2)

	assert.True(t, d.RemoveHeader(1), "Authorization placeholder is removable")
	assert.Len(t, d.Headers, 1)

	assert.False(t, d.RemoveHeader(5), "out of range")
}

func TestTestDataNormalization(t *testing.T) {
	d := NewDraft()

	d.DatasetSource = DatasetBuiltin
	assert.Equal(t, "default", d.TestData())

	d.DatasetSource = DatasetInline
	d.InlineData = `{"prompt":"hi"}`
	assert.Equal(t, `{"prompt":"hi"}`, d.TestData())

	d.DatasetSource = DatasetUpload
	d.DatasetRef = "upload:abc.jsonl"
	assert.Equal(t, "upload:abc.jsonl", d.TestData())

	d.DatasetSource = DatasetNone
	assert.Empty(t, d.TestData())
}

func TestTestRequestReducedProfile(t *testing.T) {
	d := NewDraft()
	d.Name = "smoke"
	d.Host = "https://h"
	d.APIPath = "/chat/completions"
	d.Model = "x"
	d.StreamMode = StreamModeStream
	d.Payload = `{"model":"x"}`
	d.Duration = 300
	d.ConcurrentUsers = 50
	d.SpawnRate = 5
	d.DatasetSource = DatasetBuiltin
	d.DatasetType = DatasetTypeText
	d.FieldMapping = FieldMapping{Prompt: "messages.0.content", DataFormat: "json"}

	req := d.TestRequest()
	assert.EqualValues(t, 10, req.Duration)
	assert.EqualValues(t, 1, req.ConcurrentUsers)
	assert.EqualValues(t, 1, req.SpawnRate)
	assert.Equal(t, string(DatasetNone), req.TestDataInputType)
	assert.Empty(t, req.TestData)
	assert.True(t, req.StreamMode)
	assert.Nil(t, req.FieldMapping)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"field_mapping"`)
	assert.Contains(t, string(data), `"test_data_input_type":"none"`)
}

func TestJobRequestCarriesFieldMapping(t *testing.T) {
	d := NewDraft()
	d.FieldMapping = FieldMapping{Prompt: "messages.0.content"}

	req := d.JobRequest()
	require.NotNil(t, req.FieldMapping)
	assert.Equal(t, "messages.0.content", req.FieldMapping.Prompt)
	assert.Equal(t, d.SessionID, req.TempTaskID)
}

func TestProbeChunks(t *testing.T) {
	p := &TestProbe{
		IsStream: true,
		Data:     json.RawMessage(`[{"a":1},{"b":2}]`),
	}
	chunks, err := p.Chunks()
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.True(t, strings.Contains(string(chunks[0]), `"a"`))

	p.Data = json.RawMessage(`{"flat":true}`)
	_, err = p.Chunks()
	assert.Error(t, err)
}
