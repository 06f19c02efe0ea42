package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"lmxcli/internal/models"
)

// retryLogger adapts zerolog to the retryablehttp.LeveledLogger interface.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, kv ...interface{}) {
	l.log.Error().Fields(kv).Msg(msg)
}

func (l *retryLogger) Warn(msg string, kv ...interface{}) {
	l.log.Warn().Fields(kv).Msg(msg)
}

func (l *retryLogger) Info(msg string, kv ...interface{})  {}
func (l *retryLogger) Debug(msg string, kv ...interface{}) {}

// Client talks to the LMeterX backend API. Test and upload requests go
// through a retrying client; job creation is not idempotent and uses a
// plain client that sends each request exactly once.
type Client struct {
	httpClient   *nethttp.Client
	submitClient *nethttp.Client
	baseURL      string
	token        string
	log          zerolog.Logger
}

// NewClient creates a backend client with retry behavior on transient
// failures.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("backend base URL is empty")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Timeout: timeout}
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = &retryLogger{log: log}

	return &Client{
		httpClient:   retryClient.StandardClient(),
		submitClient: &nethttp.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		log:          log,
	}, nil
}

// doJSON performs an authenticated JSON request on the given client and
// decodes the response body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, hc *nethttp.Client, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *nethttp.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// TestEndpoint posts a reduced synthetic job for a dry run against the
// target API. On a non-2xx status the decoded result is still returned when
// the body parses, so callers can surface the backend's structured error.
func (c *Client) TestEndpoint(ctx context.Context, req models.JobRequest) (*models.TestResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test request: %w", err)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+"/api/tasks/test", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("test request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var env models.TestEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil {
			return &env.Data, fmt.Errorf("test endpoint returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("test endpoint returned status %d: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode test response: %w", decodeErr)
	}
	return &env.Data, nil
}

type certUploadResponse struct {
	CertConfig models.CertConfig `json:"cert_config"`
}

type datasetUploadResponse struct {
	TestData string `json:"test_data"`
}

// UploadCertificates uploads a client certificate, and optionally its key,
// for the session. The backend persists them and returns the configuration
// reference to attach to the job.
func (c *Client) UploadCertificates(ctx context.Context, cert, key *models.StagedFile, sessionID, certType string) (*models.CertConfig, error) {
	fields := map[string]string{
		"temp_task_id": sessionID,
		"cert_type":    certType,
	}
	files := map[string]*models.StagedFile{"cert_file": cert}
	if key != nil {
		files["key_file"] = key
	}

	var out certUploadResponse
	if err := c.doMultipart(ctx, "/api/upload/cert", fields, files, &out); err != nil {
		return nil, fmt.Errorf("certificate upload failed: %w", err)
	}
	return &out.CertConfig, nil
}

// UploadDataset uploads a prompt dataset file for the session and returns
// the backend's reference for the job's test_data field.
func (c *Client) UploadDataset(ctx context.Context, file *models.StagedFile, sessionID string) (string, error) {
	fields := map[string]string{"temp_task_id": sessionID}
	files := map[string]*models.StagedFile{"file": file}

	var out datasetUploadResponse
	if err := c.doMultipart(ctx, "/api/upload/data", fields, files, &out); err != nil {
		return "", fmt.Errorf("dataset upload failed: %w", err)
	}
	return out.TestData, nil
}

// doMultipart posts form fields and files as multipart/form-data. Uploads
// are capped at 10 MiB so buffering the body in memory is acceptable.
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, files map[string]*models.StagedFile, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	for part, staged := range files {
		f, err := os.Open(staged.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", staged.Name, err)
		}
		fw, err := w.CreateFormFile(part, staged.Name)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create form file %s: %w", part, err)
		}
		if _, err := io.Copy(fw, f); err != nil {
			f.Close()
			return fmt.Errorf("failed to read %s: %w", staged.Name, err)
		}
		f.Close()
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, string(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode upload response: %w", err)
	}
	return nil
}

type createJobResponse struct {
	Data models.JobResponse `json:"data"`
}

// CreateJob submits the resolved job request to the backend. The request
// is sent exactly once; a retried POST could create the job twice.
func (c *Client) CreateJob(ctx context.Context, req models.JobRequest) (*models.JobResponse, error) {
	var out createJobResponse
	if err := c.doJSON(ctx, c.submitClient, nethttp.MethodPost, "/api/tasks", req, &out); err != nil {
		return nil, fmt.Errorf("job creation failed: %w", err)
	}
	c.log.Info().Str("job_id", out.Data.ID).Str("name", out.Data.Name).Msg("job created")
	return &out.Data, nil
}
