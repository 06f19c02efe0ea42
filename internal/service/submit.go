package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"lmxcli/internal/draft"
	"lmxcli/internal/models"
	"lmxcli/internal/upload"
)

// Submitter receives the fully resolved job request. The TUI wires this to
// the backend's job creation endpoint.
type Submitter interface {
	Submit(ctx context.Context, req models.JobRequest) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, req models.JobRequest) error

func (f SubmitterFunc) Submit(ctx context.Context, req models.JobRequest) error {
	return f(ctx, req)
}

// SubmitService runs the submission flow: full validation, sequential
// upload resolution, dataset normalization, then hand-off to the submitter.
type SubmitService struct {
	uploads   *upload.Adapter
	submitter Submitter
	log       zerolog.Logger
}

// NewSubmitService creates the submission flow.
func NewSubmitService(uploads *upload.Adapter, submitter Submitter, log zerolog.Logger) *SubmitService {
	return &SubmitService{uploads: uploads, submitter: submitter, log: log}
}

// Submit resolves and submits the draft. Any failure releases the
// submitting guard and leaves the entered values intact so the user can
// correct and retry. A concurrent attempt while one submission is pending
// fails with draft.ErrSubmitInFlight.
func (s *SubmitService) Submit(ctx context.Context, c *draft.Controller) error {
	if err := c.BeginSubmit(); err != nil {
		return err
	}
	defer c.EndSubmit()

	if err := c.ValidateAll(); err != nil {
		return err
	}

	d := c.Draft()
	if err := s.uploads.ResolveCertificates(ctx, d); err != nil {
		return fmt.Errorf("certificate upload failed: %w", err)
	}
	if err := s.uploads.ResolveDataset(ctx, d); err != nil {
		return fmt.Errorf("dataset upload failed: %w", err)
	}

	req := d.JobRequest()
	s.log.Info().Str("name", req.Name).Str("session", req.TempTaskID).Msg("submitting job")
	if err := s.submitter.Submit(ctx, req); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}
	return nil
}
