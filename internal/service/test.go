// Package service orchestrates the draft flows: dry-run testing against the
// target API, submission to the backend, and the direct connectivity probe.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"lmxcli/internal/api"
	"lmxcli/internal/draft"
	"lmxcli/internal/models"
	"lmxcli/internal/upload"
)

// TestBackend is the slice of the API client the test flow needs.
type TestBackend interface {
	TestEndpoint(ctx context.Context, req models.JobRequest) (*models.TestResult, error)
}

// TestOutcome is what the test panel renders: either a flat response body
// or an ordered sequence of streaming chunks, plus a failure message when
// the dry run did not succeed.
type TestOutcome struct {
	Succeeded  bool
	StatusCode int
	IsStream   bool
	Body       string
	Chunks     []string
	Message    string
}

// TestService runs the dry-run test flow.
type TestService struct {
	backend TestBackend
	uploads *upload.Adapter
	log     zerolog.Logger
}

// NewTestService creates the dry-run test flow.
func NewTestService(backend TestBackend, uploads *upload.Adapter, log zerolog.Logger) *TestService {
	return &TestService{backend: backend, uploads: uploads, log: log}
}

// Run validates the first form step, builds the reduced synthetic request,
// resolves any pending certificate upload, and posts the dry run. The
// outcome is always renderable; a nil error with Succeeded=false means the
// backend reported a failure.
func (s *TestService) Run(ctx context.Context, c *draft.Controller) (*TestOutcome, error) {
	if err := c.ValidateStep(draft.StepBasic); err != nil {
		return nil, err
	}

	d := c.Draft()
	if err := s.uploads.ResolveCertificates(ctx, d); err != nil {
		return nil, fmt.Errorf("certificate upload failed: %w", err)
	}

	req := d.TestRequest()
	s.log.Info().Str("target", req.TargetHost+req.APIPath).Msg("running endpoint test")

	res, err := s.backend.TestEndpoint(ctx, req)
	return buildOutcome(res, err), nil
}

// buildOutcome folds the backend result and transport error into a
// displayable outcome, applying the failure-message precedence: backend
// structured error, backend message, client-recognized timeout, generic
// client error text, fallback string.
func buildOutcome(res *models.TestResult, err error) *TestOutcome {
	out := &TestOutcome{}
	if res != nil && res.Response != nil {
		out.StatusCode = res.Response.StatusCode
		out.IsStream = res.Response.IsStream
		if res.Response.IsStream {
			if chunks, cerr := res.Response.Chunks(); cerr == nil {
				out.Chunks = make([]string, len(chunks))
				for i, c := range chunks {
					out.Chunks[i] = string(c)
				}
			} else {
				out.Body = string(res.Response.Data)
			}
		} else {
			out.Body = prettyJSON(res.Response.Data)
		}
	}

	if res != nil && res.Status == "success" && err == nil {
		out.Succeeded = true
		return out
	}
	out.Message = failureMessage(res, err)
	return out
}

func failureMessage(res *models.TestResult, err error) string {
	if res != nil {
		if res.Error != "" {
			return res.Error
		}
		if res.Message != "" {
			return res.Message
		}
	}
	if err != nil {
		if api.IsTimeout(err) {
			return "request timed out; the target may be slow or unreachable"
		}
		return err.Error()
	}
	return "endpoint test failed"
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(buf)
}
