// Package upload stages local files on the draft and resolves them into
// backend references ahead of testing and submission.
package upload

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"lmxcli/internal/api"
	"lmxcli/internal/events"
	"lmxcli/internal/models"
)

// MaxFileSize is the client-side ceiling enforced before any network call.
const MaxFileSize = 10 << 20

// Certificate upload types sent to the backend.
const (
	CertTypeCombined = "combined"
	CertTypePair     = "pair"
)

// Backend is the slice of the API client the adapter needs.
type Backend interface {
	UploadCertificates(ctx context.Context, cert, key *models.StagedFile, sessionID, certType string) (*models.CertConfig, error)
	UploadDataset(ctx context.Context, file *models.StagedFile, sessionID string) (string, error)
}

// Adapter wraps the three upload flows. Staging is local and cheap; the
// actual uploads happen at resolution time, sequentially, mutating the
// draft in place.
type Adapter struct {
	backend Backend
	bus     *events.Bus
	log     zerolog.Logger
}

// NewAdapter creates an upload adapter over the backend client.
func NewAdapter(backend Backend, bus *events.Bus, log zerolog.Logger) *Adapter {
	return &Adapter{backend: backend, bus: bus, log: log}
}

// stat validates a file against the size ceiling and returns its handle.
func stat(path string) (*models.StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s (%d bytes): %w", info.Name(), info.Size(), api.ErrFileTooLarge)
	}
	return &models.StagedFile{Name: info.Name(), Path: path, Size: info.Size()}, nil
}

func (a *Adapter) staged(kind, name string) {
	if a.bus != nil {
		a.bus.Publish(events.Event{Type: events.UploadStaged, Field: kind, Detail: name})
	}
}

// StageCertificate validates and stages a client certificate file.
func (a *Adapter) StageCertificate(d *models.Draft, path string) error {
	f, err := stat(path)
	if err != nil {
		return err
	}
	d.CertFile = f
	a.staged("cert_file", f.Name)
	return nil
}

// StageKey validates and stages a certificate key file.
func (a *Adapter) StageKey(d *models.Draft, path string) error {
	f, err := stat(path)
	if err != nil {
		return err
	}
	d.KeyFile = f
	a.staged("key_file", f.Name)
	return nil
}

// StageDataset validates and stages a prompt dataset file.
func (a *Adapter) StageDataset(d *models.Draft, path string) error {
	f, err := stat(path)
	if err != nil {
		return err
	}
	d.DatasetFile = f
	a.staged("dataset_file", f.Name)
	return nil
}

// ResolveCertificates uploads a staged certificate (and key, if present)
// and replaces the transient handles with the backend's cert_config
// reference. It is a no-op when nothing is staged.
func (a *Adapter) ResolveCertificates(ctx context.Context, d *models.Draft) error {
	if d.CertFile == nil {
		return nil
	}
	certType := CertTypeCombined
	if d.KeyFile != nil {
		certType = CertTypePair
	}
	cfg, err := a.backend.UploadCertificates(ctx, d.CertFile, d.KeyFile, d.SessionID, certType)
	if err != nil {
		return err
	}
	d.CertConfig = cfg
	d.CertFile = nil
	d.KeyFile = nil
	a.log.Debug().Str("cert_type", certType).Msg("certificate resolved")
	if a.bus != nil {
		a.bus.Publish(events.Event{Type: events.UploadResolved, Field: "cert_file"})
	}
	return nil
}

// ResolveDataset uploads a staged dataset file and replaces the handle with
// the backend's test_data reference. It is a no-op when nothing is staged.
func (a *Adapter) ResolveDataset(ctx context.Context, d *models.Draft) error {
	if d.DatasetFile == nil {
		return nil
	}
	ref, err := a.backend.UploadDataset(ctx, d.DatasetFile, d.SessionID)
	if err != nil {
		return err
	}
	d.DatasetRef = ref
	d.DatasetFile = nil
	a.log.Debug().Str("test_data", ref).Msg("dataset resolved")
	if a.bus != nil {
		a.bus.Publish(events.Event{Type: events.UploadResolved, Field: "dataset_file"})
	}
	return nil
}
