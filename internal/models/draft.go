// Package models defines the benchmark job draft and the wire types
// exchanged with the LMeterX backend.
package models

import (
	"github.com/google/uuid"
)

// DatasetSource identifies where the test prompts for a job come from.
// Exactly one variant is active on a draft at any time.
type DatasetSource string

const (
	// DatasetBuiltin uses the backend's built-in prompt set.
	DatasetBuiltin DatasetSource = "default"
	// DatasetInline uses JSONL text entered directly into the draft.
	DatasetInline DatasetSource = "input"
	// DatasetUpload uses a file uploaded to the backend.
	DatasetUpload DatasetSource = "upload"
	// DatasetNone runs the job without a prompt dataset.
	DatasetNone DatasetSource = "none"
)

// Stream mode selections for the target API.
const (
	StreamModeStream    = "stream"
	StreamModeNonStream = "non_stream"
)

// Dataset types for the built-in prompt set on chat endpoints.
const (
	DatasetTypeText       = "text"
	DatasetTypeMultimodal = "multimodal"
)

// Header is a single HTTP header or cookie entry on the draft.
// Fixed entries are seeded at draft creation and cannot be removed.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Fixed bool   `json:"-"`
}

// StagedFile is a local file selected for upload but not yet sent to the
// backend. It never appears in a job request; resolution replaces it with
// the reference the backend returns.
type StagedFile struct {
	Name string
	Path string
	Size int64
}

// FieldMapping describes where in the request/response JSON the prompt and
// answer content live. All paths are dotted JSON paths.
type FieldMapping struct {
	Prompt           string `json:"prompt"`
	DataFormat       string `json:"data_format"`
	StreamPrefix     string `json:"stream_line_prefix"`
	StopFlag         string `json:"stop_flag"`
	EndPrefix        string `json:"end_prefix"`
	EndCondition     string `json:"end_condition"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

// CertConfig is the backend's reference to an uploaded client certificate.
type CertConfig struct {
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
	CertType string `json:"cert_type,omitempty"`
}

// Draft is the in-progress, unpersisted benchmark job configuration.
// It is created fresh per session and discarded on submit or cancel.
type Draft struct {
	SessionID string

	// Identity and target.
	Name       string
	Host       string
	APIPath    string
	Model      string
	StreamMode string

	// Request shape.
	Headers    []Header
	Cookies    []Header
	Payload    string
	CertConfig *CertConfig

	// Staged uploads, pending resolution.
	CertFile    *StagedFile
	KeyFile     *StagedFile
	DatasetFile *StagedFile

	// Load profile.
	Duration        int64
	ConcurrentUsers int64
	SpawnRate       int64

	// Dataset source and per-variant payloads.
	DatasetSource DatasetSource
	DatasetType   string
	InlineData    string
	DatasetRef    string

	FieldMapping FieldMapping
}

// NewDraft creates an empty draft tagged with a fresh session identifier.
// The Content-Type header is fixed and cannot be removed; the Authorization
// header is a placeholder the user may fill in or delete.
func NewDraft() *Draft {
	return &Draft{
		SessionID: uuid.NewString(),
		Headers: []Header{
			{Name: "Content-Type", Value: "application/json", Fixed: true},
			{Name: "Authorization", Value: "Bearer <token>"},
		},
		DatasetSource: DatasetNone,
	}
}

// Clone returns a deep copy of the draft, detached from the original.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Headers = append([]Header(nil), d.Headers...)
	out.Cookies = append([]Header(nil), d.Cookies...)
	if d.CertConfig != nil {
		cc := *d.CertConfig
		out.CertConfig = &cc
	}
	if d.CertFile != nil {
		f := *d.CertFile
		out.CertFile = &f
	}
	if d.KeyFile != nil {
		f := *d.KeyFile
		out.KeyFile = &f
	}
	if d.DatasetFile != nil {
		f := *d.DatasetFile
		out.DatasetFile = &f
	}
	return &out
}

// RemoveHeader deletes the header at index i. Fixed headers are kept in
// place and false is returned.
func (d *Draft) RemoveHeader(i int) bool {
	if i < 0 || i >= len(d.Headers) || d.Headers[i].Fixed {
		return false
	}
	d.Headers = append(d.Headers[:i], d.Headers[i+1:]...)
	return true
}

// SetDatasetSource switches the active dataset-source variant, clearing the
// fields owned by the previously active variant. Switching to the built-in
// set or to none clears both the inline text and any staged or uploaded
// file reference.
func (d *Draft) SetDatasetSource(next DatasetSource) {
	if next == d.DatasetSource {
		return
	}
	switch d.DatasetSource {
	case DatasetInline:
		d.InlineData = ""
	case DatasetUpload:
		d.DatasetFile = nil
		d.DatasetRef = ""
	case DatasetBuiltin:
		d.DatasetType = ""
	}
	if next == DatasetBuiltin || next == DatasetNone {
		d.InlineData = ""
		d.DatasetFile = nil
		d.DatasetRef = ""
	}
	d.DatasetSource = next
}

// TestData resolves the active dataset-source variant to the concrete
// test_data value sent to the backend.
func (d *Draft) TestData() string {
	switch d.DatasetSource {
	case DatasetBuiltin:
		return "default"
	case DatasetInline:
		return d.InlineData
	case DatasetUpload:
		return d.DatasetRef
	default:
		return ""
	}
}
