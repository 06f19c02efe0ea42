package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmxcli/internal/draft"
	"lmxcli/internal/models"
	"lmxcli/internal/upload"
)

type fakeUploadBackend struct {
	certConfig *models.CertConfig
	datasetRef string
	certErr    error
}

func (f *fakeUploadBackend) UploadCertificates(ctx context.Context, cert, key *models.StagedFile, sessionID, certType string) (*models.CertConfig, error) {
	if f.certErr != nil {
		return nil, f.certErr
	}
	return f.certConfig, nil
}

func (f *fakeUploadBackend) UploadDataset(ctx context.Context, file *models.StagedFile, sessionID string) (string, error) {
	return f.datasetRef, nil
}

func tempFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func fullController(t *testing.T) *draft.Controller {
	t.Helper()
	c := draft.NewController(nil)
	c.SetName("nightly")
	c.SetHost("https://h")
	c.SetAPIPath("/v1/chat/completions")
	c.SetModel("x")
	c.SetStreamMode(models.StreamModeStream)
	c.SetPayload(`{"model":"x"}`)
	c.SetDuration(300)
	c.SetConcurrentUsers(20)
	c.SetSpawnRate(2)
	c.SetDatasetSource(models.DatasetNone)
	return c
}

func TestSubmitResolvesStagedCertificate(t *testing.T) {
	backend := &fakeUploadBackend{certConfig: &models.CertConfig{CertFile: "srv/cert.pem", CertType: upload.CertTypeCombined}}
	uploads := upload.NewAdapter(backend, nil, zerolog.Nop())

	var submitted models.JobRequest
	svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		submitted = req
		return nil
	}), zerolog.Nop())

	c := fullController(t)
	require.NoError(t, uploads.StageCertificate(c.Draft(), tempFile(t, "client.pem", 128)))

	require.NoError(t, svc.Submit(context.Background(), c))

	require.NotNil(t, submitted.CertConfig)
	assert.Equal(t, "srv/cert.pem", submitted.CertConfig.CertFile)
	assert.Nil(t, c.Draft().CertFile, "file handle must be consumed")

	// The wire payload must not carry any local file handle.
	data, err := json.Marshal(submitted)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "client.pem")
}

func TestSubmitNormalizesDatasetVariants(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(t *testing.T, c *draft.Controller, uploads *upload.Adapter)
		wantData string
		wantType string
	}{
		{
			name: "builtin",
			prepare: func(t *testing.T, c *draft.Controller, _ *upload.Adapter) {
				c.SetAPIPath("/v1/embeddings") // no dataset type needed off the chat path
				c.SetDatasetSource(models.DatasetBuiltin)
			},
			wantData: "default",
			wantType: "default",
		},
		{
			name: "inline",
			prepare: func(t *testing.T, c *draft.Controller, _ *upload.Adapter) {
				c.SetDatasetSource(models.DatasetInline)
				c.SetInlineData(`{"prompt":"hi"}`)
			},
			wantData: `{"prompt":"hi"}`,
			wantType: "input",
		},
		{
			name: "upload",
			prepare: func(t *testing.T, c *draft.Controller, uploads *upload.Adapter) {
				c.SetDatasetSource(models.DatasetUpload)
				require.NoError(t, uploads.StageDataset(c.Draft(), tempFile(t, "p.jsonl", 64)))
			},
			wantData: "upload:p.jsonl",
			wantType: "upload",
		},
		{
			name:     "none",
			prepare:  func(t *testing.T, c *draft.Controller, _ *upload.Adapter) {},
			wantData: "",
			wantType: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploads := upload.NewAdapter(&fakeUploadBackend{datasetRef: "upload:p.jsonl"}, nil, zerolog.Nop())

			var submitted models.JobRequest
			svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
				submitted = req
				return nil
			}), zerolog.Nop())

			c := fullController(t)
			tt.prepare(t, c, uploads)

			require.NoError(t, svc.Submit(context.Background(), c))
			assert.Equal(t, tt.wantData, submitted.TestData)
			assert.Equal(t, tt.wantType, submitted.TestDataInputType)
			assert.Nil(t, c.Draft().DatasetFile)
		})
	}
}

func TestSubmitReleasesGuardOnFailure(t *testing.T) {
	uploads := upload.NewAdapter(&fakeUploadBackend{}, nil, zerolog.Nop())
	svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		return assert.AnError
	}), zerolog.Nop())

	c := fullController(t)
	require.Error(t, svc.Submit(context.Background(), c))

	assert.False(t, c.Submitting(), "guard must be released so the user can retry")
	assert.Equal(t, "nightly", c.Draft().Name, "entered values stay intact")

	// Retry succeeds once the submitter recovers.
	ok := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		return nil
	}), zerolog.Nop())
	require.NoError(t, ok.Submit(context.Background(), c))
}

func TestSubmitBlockedWhileInFlight(t *testing.T) {
	uploads := upload.NewAdapter(&fakeUploadBackend{}, nil, zerolog.Nop())
	svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		return nil
	}), zerolog.Nop())

	c := fullController(t)
	require.NoError(t, c.BeginSubmit())

	assert.ErrorIs(t, svc.Submit(context.Background(), c), draft.ErrSubmitInFlight)
}

func TestSubmitValidatesFullDraft(t *testing.T) {
	uploads := upload.NewAdapter(&fakeUploadBackend{}, nil, zerolog.Nop())
	called := false
	svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		called = true
		return nil
	}), zerolog.Nop())

	c := draft.NewController(nil) // empty draft
	err := svc.Submit(context.Background(), c)
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, c.Submitting())
}

func TestSubmitCertUploadFailureAbortsBeforeSubmitter(t *testing.T) {
	uploads := upload.NewAdapter(&fakeUploadBackend{certErr: assert.AnError}, nil, zerolog.Nop())
	called := false
	svc := NewSubmitService(uploads, SubmitterFunc(func(ctx context.Context, req models.JobRequest) error {
		called = true
		return nil
	}), zerolog.Nop())

	c := fullController(t)
	require.NoError(t, uploads.StageCertificate(c.Draft(), tempFile(t, "client.pem", 128)))

	require.Error(t, svc.Submit(context.Background(), c))
	assert.False(t, called)
	assert.NotNil(t, c.Draft().CertFile, "staged file retained for retry")
}
