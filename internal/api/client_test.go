package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmxcli/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "tok-123", 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func stageFile(t *testing.T, name, content string) *models.StagedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return &models.StagedFile{Name: name, Path: path, Size: int64(len(content))}
}

func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewClient("  ", "", time.Second, zerolog.Nop())
	require.Error(t, err)
}

func TestTestEndpointDecodesEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		var req models.JobRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(10), req.Duration)

		json.NewEncoder(w).Encode(models.TestEnvelope{Data: models.TestResult{
			Status: "success",
			Response: &models.TestProbe{
				StatusCode: 200,
				Data:       json.RawMessage(`{"ok":true}`),
			},
		}})
	})

	d := models.NewDraft()
	d.Duration = 600
	res, err := c.TestEndpoint(context.Background(), d.TestRequest())
	require.NoError(t, err)

	assert.Equal(t, "/api/tasks/test", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "success", res.Status)
	require.NotNil(t, res.Response)
	assert.Equal(t, 200, res.Response.StatusCode)
}

func TestTestEndpointReturnsStructuredErrorOnNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.TestEnvelope{Data: models.TestResult{
			Status: "failed",
			Error:  "model not found on target",
		}})
	})

	res, err := c.TestEndpoint(context.Background(), models.JobRequest{})
	require.Error(t, err)
	require.NotNil(t, res, "decoded result is returned alongside the status error")
	assert.Equal(t, "model not found on target", res.Error)
}

func TestUploadCertificatesSendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/api/upload/cert", r.URL.Path)
		assert.Equal(t, "sess-1", r.FormValue("temp_task_id"))
		assert.Equal(t, "pair", r.FormValue("cert_type"))

		certPart, hdr, err := r.FormFile("cert_file")
		require.NoError(t, err)
		defer certPart.Close()
		assert.Equal(t, "client.pem", hdr.Filename)
		data, err := io.ReadAll(certPart)
		require.NoError(t, err)
		assert.Equal(t, "CERT", string(data))

		_, _, err = r.FormFile("key_file")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]any{"cert_config": models.CertConfig{
			CertFile: "srv/client.pem",
			KeyFile:  "srv/client.key",
			CertType: "pair",
		}})
	})

	cert := stageFile(t, "client.pem", "CERT")
	key := stageFile(t, "client.key", "KEY")
	cfg, err := c.UploadCertificates(context.Background(), cert, key, "sess-1", "pair")
	require.NoError(t, err)
	assert.Equal(t, "srv/client.pem", cfg.CertFile)
	assert.Equal(t, "srv/client.key", cfg.KeyFile)
}

func TestUploadDatasetReturnsReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/api/upload/data", r.URL.Path)
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "prompts.jsonl", hdr.Filename)

		json.NewEncoder(w).Encode(map[string]string{"test_data": "upload:prompts.jsonl"})
	})

	ref, err := c.UploadDataset(context.Background(), stageFile(t, "prompts.jsonl", `{"prompt":"hi"}`), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, "upload:prompts.jsonl", ref)
}

func TestUploadFailsOnBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	})

	_, err := c.UploadDataset(context.Background(), stageFile(t, "p.csv", "a,b"), "sess-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestCreateJobSendsRequestExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateJob(context.Background(), models.JobRequest{Name: "once"})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "job creation must not be retried")
}

func TestCreateJobUnwrapsDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req models.JobRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nightly", req.Name)

		json.NewEncoder(w).Encode(map[string]any{"data": models.JobResponse{
			ID:     "job-42",
			Name:   req.Name,
			Status: "created",
		}})
	})

	job, err := c.CreateJob(context.Background(), models.JobRequest{Name: "nightly"})
	require.NoError(t, err)
	assert.Equal(t, "job-42", job.ID)
	assert.Equal(t, "created", job.Status)
}
