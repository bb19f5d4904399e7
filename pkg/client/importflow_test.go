package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T, handler http.Handler, onSuccess func(int)) *ImportWorkflow {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewImportWorkflow(New(server.URL, NewMemStore()), onSuccess)
}

func selectCSV(t *testing.T, w *ImportWorkflow, name, content string) {
	t.Helper()
	require.NoError(t, w.SelectFile(name, "text/csv", strings.NewReader(content)))
}

func TestSelectFileRejectsOversized(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)

	oversized := bytes.NewReader(make([]byte, 10*1024*1024+1))
	err := w.SelectFile("big.csv", "text/csv", oversized)
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Nil(t, w.File())
	require.Equal(t, StateUpload, w.State())
}

func TestSelectFileAtLimit(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)

	exact := bytes.NewReader(make([]byte, 10*1024*1024))
	require.NoError(t, w.SelectFile("ok.csv", "text/csv", exact))
	require.NotNil(t, w.File())
}

func TestSelectFileExtensionFallback(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)

	// MIME type omitted: the extension decides
	require.NoError(t, w.SelectFile("statement.csv", "", strings.NewReader("Date,Amt\n")))
	require.NotNil(t, w.File())
}

func TestSelectFileRejectsUnknownType(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)

	err := w.SelectFile("notes.txt", "text/plain", strings.NewReader("hello"))
	require.ErrorIs(t, err, ErrInvalidFileType)
	require.Nil(t, w.File())
}

func TestPreviewRequiresFile(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)
	require.ErrorIs(t, w.Preview(context.Background()), ErrNoFile)
}

func TestConfirmRequiresPreview(t *testing.T) {
	w := NewImportWorkflow(New("http://unused", NewMemStore()), nil)
	_, err := w.Confirm(context.Background())
	require.ErrorIs(t, err, ErrNoPreview)
}

func TestBackClearsPreviewState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/preview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, PreviewResult{
			PreviewID:        "p-back",
			Columns:          []string{"Date", "Desc", "Amt"},
			SampleRows:       []map[string]string{{"Date": "2024-10-01"}},
			SuggestedMapping: map[string]string{"date": "Date", "merchant": "Desc", "amount": "Amt"},
		})
	})

	w := newTestWorkflow(t, mux, nil)
	selectCSV(t, w, "bank.csv", "Date,Desc,Amt\n2024-10-01,Coffee,4.50\n")
	require.NoError(t, w.Preview(context.Background()))
	require.Equal(t, StatePreview, w.State())

	w.Back()
	require.Equal(t, StateUpload, w.State())
	require.Empty(t, w.PreviewID())
	require.Empty(t, w.Columns())
	require.Empty(t, w.SampleRows())
	require.Empty(t, w.Mapping())
	// The selected file survives so preview can be retried
	require.NotNil(t, w.File())
}

func TestPreviewConfirmEndToEnd(t *testing.T) {
	var confirmBody struct {
		PreviewID string            `json:"preview_id"`
		Mapping   map[string]string `json:"mapping"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/preview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, PreviewResult{
			PreviewID:        "p1",
			Columns:          []string{"Date", "Desc", "Amt"},
			SampleRows:       []map[string]string{{"Date": "2024-10-02", "Desc": "Grocer", "Amt": "31.20"}},
			SuggestedMapping: map[string]string{"date": "Date", "merchant": "Desc", "amount": "Amt", "category": ""},
		})
	})
	mux.HandleFunc("/transactions/confirm", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&confirmBody))
		writeJSON(t, w, http.StatusOK, ImportResult{Count: 42})
	})

	var refreshes int
	w := newTestWorkflow(t, mux, func(count int) {
		refreshes++
		require.Equal(t, 42, count)
	})

	selectCSV(t, w, "bank_oct.csv", "Date,Desc,Amt\n2024-10-02,Grocer,31.20\n")
	require.NoError(t, w.Preview(context.Background()))
	require.Equal(t, "p1", w.PreviewID())
	require.Equal(t, []string{"Date", "Desc", "Amt"}, w.Columns())

	// Mapping left unchanged: confirm resubmits the suggestion verbatim
	count, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, count)

	require.Equal(t, "p1", confirmBody.PreviewID)
	require.Equal(t, map[string]string{
		"date":     "Date",
		"merchant": "Desc",
		"amount":   "Amt",
		"category": "",
	}, confirmBody.Mapping)

	require.Equal(t, StateSuccess, w.State())
	require.Equal(t, 1, refreshes)
}

func TestSetMappingValidation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/preview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, PreviewResult{
			PreviewID:        "p2",
			Columns:          []string{"Posted", "Payee", "Value"},
			SuggestedMapping: map[string]string{"date": "Posted", "merchant": "Payee", "amount": "Value"},
		})
	})

	w := newTestWorkflow(t, mux, nil)

	// Editing before preview is a precondition violation
	require.ErrorIs(t, w.SetMapping("date", "Posted"), ErrInvalidTransition)

	selectCSV(t, w, "export.csv", "Posted,Payee,Value\n")
	require.NoError(t, w.Preview(context.Background()))

	require.NoError(t, w.SetMapping("category", "Payee"))
	require.NoError(t, w.SetMapping("category", "")) // back to auto-detect
	require.Error(t, w.SetMapping("category", "Nope"))
	require.Error(t, w.SetMapping("memo", "Payee"))

	require.Equal(t, "", w.Mapping()["category"])
}

func TestConfirmFailureStaysInPreview(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/preview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, PreviewResult{
			PreviewID:        "p3",
			Columns:          []string{"Date", "Amt"},
			SuggestedMapping: map[string]string{"date": "Date", "amount": "Amt"},
		})
	})
	mux.HandleFunc("/transactions/confirm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"message": "preview expired"})
	})

	w := newTestWorkflow(t, mux, nil)
	selectCSV(t, w, "a.csv", "Date,Amt\n")
	require.NoError(t, w.Preview(context.Background()))

	_, err := w.Confirm(context.Background())
	require.EqualError(t, err, "preview expired")

	// Everything intact for a verbatim retry
	require.Equal(t, StatePreview, w.State())
	require.Equal(t, "p3", w.PreviewID())
}

func TestDirectUploadSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "trusted.csv", header.Filename)
		writeJSON(t, w, http.StatusOK, ImportResult{Count: 7})
	})

	var refreshes int
	w := newTestWorkflow(t, mux, func(int) { refreshes++ })
	selectCSV(t, w, "trusted.csv", "Date,Desc,Amt\n2024-10-02,Grocer,31.20\n")

	count, err := w.DirectUpload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.Equal(t, StateSuccess, w.State())
	require.Equal(t, 1, refreshes)
}

func TestUploadFailureStaysInUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/upload", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"detail": "storage unavailable"})
	})

	w := newTestWorkflow(t, mux, nil)
	selectCSV(t, w, "a.csv", "Date,Amt\n")

	_, err := w.DirectUpload(context.Background())
	require.EqualError(t, err, "storage unavailable")
	require.Equal(t, StateUpload, w.State())
}

func TestServerSizeRejectionMatchesLocalCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/preview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusRequestEntityTooLarge, map[string]string{"message": "file exceeds the size limit"})
	})

	w := newTestWorkflow(t, mux, nil)
	selectCSV(t, w, "a.csv", "Date,Amt\n")

	err := w.Preview(context.Background())
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Equal(t, StateUpload, w.State())
}

func TestResetTearsDownSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/upload", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, ImportResult{Count: 3})
	})

	w := newTestWorkflow(t, mux, nil)
	selectCSV(t, w, "a.csv", "Date,Amt\n")
	_, err := w.DirectUpload(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, w.State())

	w.Reset()
	require.Equal(t, StateUpload, w.State())
	require.Nil(t, w.File())
	require.Empty(t, w.PreviewID())
}
