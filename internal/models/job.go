package models

import "encoding/json"

// JobRequest is the benchmark job creation payload sent to the backend.
// Staged file handles never appear here; uploads are resolved to backend
// references before a request is built.
type JobRequest struct {
	TempTaskID        string        `json:"temp_task_id"`
	Name              string        `json:"name"`
	TargetHost        string        `json:"target_host"`
	APIPath           string        `json:"api_path"`
	Model             string        `json:"model"`
	StreamMode        bool          `json:"stream_mode"`
	Headers           []Header      `json:"headers,omitempty"`
	Cookies           []Header      `json:"cookies,omitempty"`
	CertConfig        *CertConfig   `json:"cert_config,omitempty"`
	RequestPayload    string        `json:"request_payload"`
	Duration          int64         `json:"duration"`
	ConcurrentUsers   int64         `json:"concurrent_users"`
	SpawnRate         int64         `json:"spawn_rate"`
	ChatType          string        `json:"chat_type,omitempty"`
	TestDataInputType string        `json:"test_data_input_type"`
	TestData          string        `json:"test_data"`
	FieldMapping      *FieldMapping `json:"field_mapping,omitempty"`
}

// JobRequest builds the full creation payload from the draft, normalizing
// the dataset-source variant to its concrete test_data value.
func (d *Draft) JobRequest() JobRequest {
	fm := d.FieldMapping
	return JobRequest{
		TempTaskID:        d.SessionID,
		Name:              d.Name,
		TargetHost:        d.Host,
		APIPath:           d.APIPath,
		Model:             d.Model,
		StreamMode:        d.StreamMode == StreamModeStream,
		Headers:           d.Headers,
		Cookies:           d.Cookies,
		CertConfig:        d.CertConfig,
		RequestPayload:    d.Payload,
		Duration:          d.Duration,
		ConcurrentUsers:   d.ConcurrentUsers,
		SpawnRate:         d.SpawnRate,
		ChatType:          d.DatasetType,
		TestDataInputType: string(d.DatasetSource),
		TestData:          d.TestData(),
		FieldMapping:      &fm,
	}
}

// TestRequest builds the reduced synthetic payload for a dry-run test:
// a 10 second run with a single user, no dataset, and no field mapping.
func (d *Draft) TestRequest() JobRequest {
	req := d.JobRequest()
	req.Duration = 10
	req.ConcurrentUsers = 1
	req.SpawnRate = 1
	req.TestDataInputType = string(DatasetNone)
	req.TestData = ""
	req.ChatType = ""
	req.FieldMapping = nil
	return req
}

// JobResponse is the backend's record of a created job.
type JobResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// TestEnvelope wraps the dry-run test response body.
type TestEnvelope struct {
	Data TestResult `json:"data"`
}

// TestResult is the outcome of a dry-run test against the target API.
type TestResult struct {
	Status   string     `json:"status"`
	Error    string     `json:"error,omitempty"`
	Message  string     `json:"message,omitempty"`
	Response *TestProbe `json:"response,omitempty"`
}

// TestProbe carries the raw response the backend observed from the target.
// For streaming targets Data is an ordered array of chunks.
type TestProbe struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	IsStream   bool            `json:"is_stream"`
}

// Chunks decodes the probe body as an ordered sequence of streaming chunks.
func (p *TestProbe) Chunks() ([]json.RawMessage, error) {
	var chunks []json.RawMessage
	if err := json.Unmarshal(p.Data, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}
