package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lmxcli/internal/events"
	"lmxcli/internal/models"
)

// Step is one page of the job creation form.
type Step int

const (
	StepBasic   Step = 1 // identity, target, request shape
	StepLoad    Step = 2 // load profile and dataset source
	StepMapping Step = 3 // response field mapping
)

// ErrSubmitInFlight is returned when a submission starts while another one
// has not finished.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects per-field failures for one validation pass.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Controller owns a draft and the three-step form state around it. All
// mutations go through its setters so that the derived test gate stays
// current and every change is published on the event bus.
type Controller struct {
	draft      *models.Draft
	step       Step
	copyMode   bool
	submitting bool
	canTest    bool
	bus        *events.Bus
}

// NewController creates a controller over a fresh draft.
func NewController(bus *events.Bus) *Controller {
	return &Controller{
		draft: models.NewDraft(),
		step:  StepBasic,
		bus:   bus,
	}
}

// NewControllerFromJob creates a controller pre-populated from an existing
// job for duplication. The draft gets a fresh session identifier, and the
// original field mapping is preserved untouched: changing the API path on a
// copied draft does not re-apply mapping defaults.
func NewControllerFromJob(job models.JobRequest, bus *events.Bus) *Controller {
	d := models.NewDraft()
	d.Name = job.Name
	d.Host = job.TargetHost
	d.APIPath = job.APIPath
	d.Model = job.Model
	if job.StreamMode {
		d.StreamMode = models.StreamModeStream
	} else {
		d.StreamMode = models.StreamModeNonStream
	}
	if len(job.Headers) > 0 {
		d.Headers = append([]models.Header(nil), job.Headers...)
	}
	d.Cookies = append([]models.Header(nil), job.Cookies...)
	d.Payload = job.RequestPayload
	d.CertConfig = job.CertConfig
	d.Duration = job.Duration
	d.ConcurrentUsers = job.ConcurrentUsers
	d.SpawnRate = job.SpawnRate
	d.DatasetSource = models.DatasetSource(job.TestDataInputType)
	d.DatasetType = job.ChatType
	switch d.DatasetSource {
	case models.DatasetInline:
		d.InlineData = job.TestData
	case models.DatasetUpload:
		d.DatasetRef = job.TestData
	}
	if job.FieldMapping != nil {
		d.FieldMapping = *job.FieldMapping
	} else {
		d.FieldMapping = DefaultFieldMapping(d.APIPath)
	}

	c := &Controller{
		draft:    d,
		step:     StepBasic,
		copyMode: true,
		bus:      bus,
	}
	c.canTest = c.testSubsetOK()
	return c
}

// Snapshot returns a controller over a deep copy of the draft, detached
// from the event bus. Flows that run off the owning goroutine must operate
// on a snapshot; the live draft is mutated only by its owner.
func (c *Controller) Snapshot() *Controller {
	s := &Controller{
		draft:    c.draft.Clone(),
		step:     c.step,
		copyMode: c.copyMode,
	}
	s.canTest = s.testSubsetOK()
	return s
}

// Draft exposes the underlying draft for rendering. Mutations must go
// through the controller's setters.
func (c *Controller) Draft() *models.Draft { return c.draft }

// Step returns the active form step.
func (c *Controller) Step() Step { return c.step }

// CopyMode reports whether the draft was pre-populated from an existing job.
func (c *Controller) CopyMode() bool { return c.copyMode }

// Next advances to the following step if the current step's required
// fields validate. The step does not change on failure.
func (c *Controller) Next() error {
	if c.step >= StepMapping {
		return nil
	}
	if err := c.ValidateStep(c.step); err != nil {
		return err
	}
	c.step++
	if c.bus != nil {
		c.bus.StepChanged(int(c.step))
	}
	return nil
}

// Prev moves back one step unconditionally.
func (c *Controller) Prev() {
	if c.step <= StepBasic {
		return
	}
	c.step--
	if c.bus != nil {
		c.bus.StepChanged(int(c.step))
	}
}

// CanTest reports the derived gate for the dry-run test action. It is
// recomputed on every field change from the minimal required subset,
// independent of the active step.
func (c *Controller) CanTest() bool { return c.canTest }

// Submitting reports whether a submission is currently in flight.
func (c *Controller) Submitting() bool { return c.submitting }

// BeginSubmit acquires the submitting guard. A second submission attempt
// while one is pending fails with ErrSubmitInFlight.
func (c *Controller) BeginSubmit() error {
	if c.submitting {
		return ErrSubmitInFlight
	}
	c.submitting = true
	if c.bus != nil {
		c.bus.Publish(events.Event{Type: events.SubmitStarted})
	}
	return nil
}

// EndSubmit releases the submitting guard so the user may correct the
// draft and retry.
func (c *Controller) EndSubmit() {
	c.submitting = false
	if c.bus != nil {
		c.bus.Publish(events.Event{Type: events.SubmitEnded})
	}
}

func (c *Controller) changed(field string) {
	c.canTest = c.testSubsetOK()
	if c.bus != nil {
		c.bus.FieldChanged(field, "")
	}
}

// SetName sets the job name.
func (c *Controller) SetName(v string) {
	c.draft.Name = v
	c.changed("name")
}

// SetHost sets the target host.
func (c *Controller) SetHost(v string) {
	c.draft.Host = v
	c.changed("target_host")
}

// SetAPIPath sets the target API path and re-derives the field-mapping
// defaults, unless the draft was pre-populated in copy mode, in which case
// the original mapping is left alone.
func (c *Controller) SetAPIPath(v string) {
	c.draft.APIPath = v
	if !c.copyMode {
		c.draft.FieldMapping = DefaultFieldMapping(v)
	}
	c.changed("api_path")
}

// SetModel sets the model name.
func (c *Controller) SetModel(v string) {
	c.draft.Model = v
	c.changed("model")
}

// SetStreamMode selects streaming or non-streaming responses.
func (c *Controller) SetStreamMode(v string) {
	c.draft.StreamMode = v
	c.changed("stream_mode")
}

// SetPayload sets the JSON request payload template.
func (c *Controller) SetPayload(v string) {
	c.draft.Payload = v
	c.changed("request_payload")
}

// SetDuration sets the run duration in seconds.
func (c *Controller) SetDuration(v int64) {
	c.draft.Duration = v
	c.changed("duration")
}

// SetConcurrentUsers sets the concurrent user count.
func (c *Controller) SetConcurrentUsers(v int64) {
	c.draft.ConcurrentUsers = v
	c.changed("concurrent_users")
}

// SetSpawnRate sets the user spawn rate.
func (c *Controller) SetSpawnRate(v int64) {
	c.draft.SpawnRate = v
	c.changed("spawn_rate")
}

// SetDatasetSource switches the active dataset-source variant; the draft
// clears the fields owned by the variant being left.
func (c *Controller) SetDatasetSource(v models.DatasetSource) {
	c.draft.SetDatasetSource(v)
	c.changed("test_data_input_type")
}

// SetDatasetType selects the built-in dataset flavor.
func (c *Controller) SetDatasetType(v string) {
	c.draft.DatasetType = v
	c.changed("chat_type")
}

// SetInlineData sets the inline JSONL prompt data.
func (c *Controller) SetInlineData(v string) {
	c.draft.InlineData = v
	c.changed("test_data")
}

// SetFieldMapping replaces the response field mapping.
func (c *Controller) SetFieldMapping(fm models.FieldMapping) {
	c.draft.FieldMapping = fm
	c.changed("field_mapping")
}

// AddHeader appends a request header.
func (c *Controller) AddHeader(name, value string) {
	c.draft.Headers = append(c.draft.Headers, models.Header{Name: name, Value: value})
	c.changed("headers")
}

// RemoveHeader removes the header at index i; fixed headers stay.
func (c *Controller) RemoveHeader(i int) bool {
	ok := c.draft.RemoveHeader(i)
	if ok {
		c.changed("headers")
	}
	return ok
}

// AddCookie appends a request cookie.
func (c *Controller) AddCookie(name, value string) {
	c.draft.Cookies = append(c.draft.Cookies, models.Header{Name: name, Value: value})
	c.changed("cookies")
}

// testSubsetOK checks the minimal subset required for the test action.
func (c *Controller) testSubsetOK() bool {
	d := c.draft
	return d.Host != "" && d.APIPath != "" && d.Model != "" &&
		d.StreamMode != "" && payloadOK(d.Payload)
}

func payloadOK(payload string) bool {
	if strings.TrimSpace(payload) == "" {
		return false
	}
	var v any
	return json.Unmarshal([]byte(payload), &v) == nil
}

// ValidateStep checks the required fields of one step.
func (c *Controller) ValidateStep(s Step) error {
	var errs ValidationErrors
	switch s {
	case StepBasic:
		errs = validateBasic(c.draft)
	case StepLoad:
		errs = validateLoad(c.draft)
	case StepMapping:
		// The mapping step has no required fields.
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateAll checks the full draft ahead of submission.
func (c *Controller) ValidateAll() error {
	errs := append(validateBasic(c.draft), validateLoad(c.draft)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateBasic(d *models.Draft) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, FieldError{"name", "job name is required"})
	}
	if strings.TrimSpace(d.Host) == "" {
		errs = append(errs, FieldError{"target_host", "target host is required"})
	}
	if strings.TrimSpace(d.APIPath) == "" {
		errs = append(errs, FieldError{"api_path", "API path is required"})
	}
	if strings.TrimSpace(d.Model) == "" {
		errs = append(errs, FieldError{"model", "model name is required"})
	}
	if d.StreamMode == "" {
		errs = append(errs, FieldError{"stream_mode", "response mode must be selected"})
	}
	if strings.TrimSpace(d.Payload) == "" {
		errs = append(errs, FieldError{"request_payload", "request payload is required"})
	} else if !payloadOK(d.Payload) {
		errs = append(errs, FieldError{"request_payload", "request payload must be valid JSON"})
	}
	return errs
}

func validateLoad(d *models.Draft) ValidationErrors {
	var errs ValidationErrors
	if d.DatasetSource == "" {
		errs = append(errs, FieldError{"test_data_input_type", "dataset source must be selected"})
	}
	if d.Duration <= 0 {
		errs = append(errs, FieldError{"duration", "duration must be greater than 0"})
	}
	if d.ConcurrentUsers <= 0 {
		errs = append(errs, FieldError{"concurrent_users", "concurrent users must be greater than 0"})
	}
	if d.SpawnRate <= 0 {
		errs = append(errs, FieldError{"spawn_rate", "spawn rate must be greater than 0"})
	}
	switch d.DatasetSource {
	case models.DatasetBuiltin:
		if IsChatPath(d.APIPath) && d.DatasetType == "" {
			errs = append(errs, FieldError{"chat_type", "dataset type is required for the built-in set"})
		}
	case models.DatasetInline:
		if strings.TrimSpace(d.InlineData) == "" {
			errs = append(errs, FieldError{"test_data", "inline prompt data is required"})
		}
	case models.DatasetUpload:
		if d.DatasetFile == nil && d.DatasetRef == "" {
			errs = append(errs, FieldError{"test_data", "a dataset file must be selected"})
		}
	}
	return errs
}
