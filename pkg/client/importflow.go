package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
)

// MaxFileSize is the hard client-side ceiling, checked before any network
// call. The server enforces its own authoritative limit.
const MaxFileSize = 10 * 1024 * 1024

// ImportState is the current stage of the import workflow.
type ImportState int

const (
	StateUpload ImportState = iota
	StatePreview
	StateSuccess
)

func (s ImportState) String() string {
	switch s {
	case StateUpload:
		return "upload"
	case StatePreview:
		return "preview"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

var ErrInvalidTransition = errors.New("operation not allowed in current state")

// MappingFields are the four logical transaction fields a mapping resolves.
// An empty value means auto-detect.
var MappingFields = []string{"date", "merchant", "amount", "category"}

var acceptedMediaTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/pdf":  true,
	"application/json": true,
}

var acceptedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
	".pdf":  true,
	".json": true,
}

// ImportFile is the locally-held upload candidate.
type ImportFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// ImportWorkflow drives one upload attempt through
// upload -> preview -> confirm -> success, or the direct shortcut
// upload -> success. Failed transitions leave the state untouched so the
// user can retry without re-entering anything. One transition is in
// flight at a time, guarded by an explicit flag rather than disabled
// buttons.
type ImportWorkflow struct {
	client    *Client
	onSuccess func(count int)

	mu         sync.Mutex
	inFlight   bool
	state      ImportState
	file       *ImportFile
	previewID  string
	columns    []string
	sampleRows []map[string]string
	mapping    map[string]string
	notified   bool
}

// NewImportWorkflow builds a workflow in the Upload state. onSuccess fires
// exactly once when the workflow reaches Success; callers typically refresh
// their transaction list there. The workflow itself never mutates
// transaction state.
func NewImportWorkflow(c *Client, onSuccess func(count int)) *ImportWorkflow {
	return &ImportWorkflow{
		client:    c,
		onSuccess: onSuccess,
	}
}

// SelectFile validates and stores the upload candidate. The declared media
// type is checked first; when it is absent or unrecognized the file
// extension decides. Rejection leaves any previously selected file in
// place.
func (w *ImportWorkflow) SelectFile(name string, mediaType string, r io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateUpload {
		return ErrInvalidTransition
	}
	if !acceptedMediaTypes[mediaType] && !acceptedExtensions[strings.ToLower(filepath.Ext(name))] {
		return ErrInvalidFileType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return err
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}

	w.file = &ImportFile{Name: name, MediaType: mediaType, Data: data}
	return nil
}

// RemoveFile discards the selected file without leaving the Upload state.
func (w *ImportWorkflow) RemoveFile() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateUpload {
		w.file = nil
	}
}

// Preview submits the selected file to the preview endpoint. On success the
// workflow moves to Preview holding the server's columns, sample rows and
// suggested mapping; on failure it stays in Upload.
func (w *ImportWorkflow) Preview(ctx context.Context) error {
	file, err := w.beginFileCall(StateUpload)
	if err != nil {
		return err
	}
	defer w.end()

	result, err := w.client.PreviewTransactions(ctx, file.Name, file.Data)
	if err != nil {
		return asImportError(err)
	}

	w.mu.Lock()
	w.state = StatePreview
	w.previewID = result.PreviewID
	w.columns = append([]string(nil), result.Columns...)
	w.sampleRows = result.SampleRows
	w.mapping = normalizeMapping(result.SuggestedMapping)
	w.mu.Unlock()

	return nil
}

// DirectUpload submits the selected file to the immediate-import endpoint,
// skipping preview. On failure the workflow stays in Upload.
func (w *ImportWorkflow) DirectUpload(ctx context.Context) (int, error) {
	file, err := w.beginFileCall(StateUpload)
	if err != nil {
		return 0, err
	}
	defer w.end()

	result, err := w.client.UploadTransactions(ctx, file.Name, file.Data)
	if err != nil {
		return 0, asImportError(err)
	}

	w.succeed(result.Count)
	return result.Count, nil
}

// SetMapping points a logical field at a source column. Local only; no
// network call. An empty column means auto-detect.
func (w *ImportWorkflow) SetMapping(field, column string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StatePreview || w.previewID == "" {
		return ErrInvalidTransition
	}
	if !isMappingField(field) {
		return fmt.Errorf("unknown mapping field %q", field)
	}
	if column != "" && !contains(w.columns, column) {
		return fmt.Errorf("column %q not present in file", column)
	}

	w.mapping[field] = column
	return nil
}

// Confirm commits the previewed import with the current mapping. Requires
// a preview identifier; on failure the workflow stays in Preview with
// everything intact so confirm can be retried verbatim.
func (w *ImportWorkflow) Confirm(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.previewID == "" {
		w.mu.Unlock()
		return 0, ErrNoPreview
	}
	if w.inFlight {
		w.mu.Unlock()
		return 0, ErrBusy
	}
	w.inFlight = true
	previewID := w.previewID
	mapping := cloneMapping(w.mapping)
	w.mu.Unlock()
	defer w.end()

	result, err := w.client.ConfirmTransactions(ctx, previewID, mapping)
	if err != nil {
		return 0, asImportError(err)
	}

	w.succeed(result.Count)
	return result.Count, nil
}

// Back returns from Preview to Upload, discarding the preview identifier,
// mapping, columns and sample rows. The selected file is kept.
func (w *ImportWorkflow) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StatePreview {
		return
	}
	w.state = StateUpload
	w.clearPreview()
}

// Reset tears the session down to a fresh Upload state. Used on modal
// close and after Success.
func (w *ImportWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateUpload
	w.file = nil
	w.notified = false
	w.clearPreview()
}

func (w *ImportWorkflow) State() ImportState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *ImportWorkflow) File() *ImportFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file
}

func (w *ImportWorkflow) PreviewID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.previewID
}

func (w *ImportWorkflow) Columns() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.columns...)
}

func (w *ImportWorkflow) SampleRows() []map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sampleRows
}

func (w *ImportWorkflow) Mapping() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneMapping(w.mapping)
}

// beginFileCall guards a network transition that needs a selected file and
// a specific starting state.
func (w *ImportWorkflow) beginFileCall(from ImportState) (*ImportFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != from {
		return nil, ErrInvalidTransition
	}
	if w.file == nil {
		return nil, ErrNoFile
	}
	if w.inFlight {
		return nil, ErrBusy
	}
	w.inFlight = true
	return w.file, nil
}

func (w *ImportWorkflow) end() {
	w.mu.Lock()
	w.inFlight = false
	w.mu.Unlock()
}

func (w *ImportWorkflow) succeed(count int) {
	w.mu.Lock()
	w.state = StateSuccess
	alreadyNotified := w.notified
	w.notified = true
	callback := w.onSuccess
	w.mu.Unlock()

	if callback != nil && !alreadyNotified {
		callback(count)
	}
}

func (w *ImportWorkflow) clearPreview() {
	w.previewID = ""
	w.columns = nil
	w.sampleRows = nil
	w.mapping = nil
}

// asImportError maps a server-side size rejection onto the same error the
// local check produces; every other failure passes through untouched.
func asImportError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusRequestEntityTooLarge {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, apiErr.Message)
	}
	return err
}

// normalizeMapping guarantees all four logical fields are present, adding
// empty auto-detect entries for anything the server left out.
func normalizeMapping(suggested map[string]string) map[string]string {
	mapping := make(map[string]string, len(MappingFields))
	for _, field := range MappingFields {
		mapping[field] = suggested[field]
	}
	return mapping
}

func isMappingField(field string) bool {
	for _, f := range MappingFields {
		if f == field {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func cloneMapping(mapping map[string]string) map[string]string {
	if mapping == nil {
		return nil
	}
	cloned := make(map[string]string, len(mapping))
	for k, v := range mapping {
		cloned[k] = v
	}
	return cloned
}
