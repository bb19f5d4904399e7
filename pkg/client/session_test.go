package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Session, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(server.URL, NewMemStore())
	return NewSession(c), server
}

func decodeAnalyzeRequest(t *testing.T, r *http.Request) AnalyzeRequest {
	t.Helper()
	var req AnalyzeRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestSendAppendsUserMessageBeforeResponse(t *testing.T) {
	var session *Session
	var transcriptAtRequest []Message

	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		// Observed while the request is still in flight
		transcriptAtRequest = session.Transcript()
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{Response: "ok"})
	})
	session = s

	_, err := session.Send(context.Background(), "What did I spend on food?")
	require.NoError(t, err)

	require.Len(t, transcriptAtRequest, 1)
	require.Equal(t, RoleUser, transcriptAtRequest[0].Role)
	require.Equal(t, "What did I spend on food?", transcriptAtRequest[0].Content)
}

func TestSendRejectsBlankInput(t *testing.T) {
	var calls atomic.Int32
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{Response: "ok"})
	})

	_, err := session.Send(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = session.Send(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)

	require.Zero(t, calls.Load())
	require.Empty(t, session.Transcript())
}

func TestSendRejectsWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{Response: "ok"})
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.Send(context.Background(), "first")
		firstDone <- err
	}()

	<-entered
	transcript, err := session.Send(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	// The rejection still reports the transcript as it stands, holding
	// only the first send's optimistic message.
	require.Len(t, transcript, 1)
	require.Equal(t, "first", transcript[0].Content)

	close(release)
	require.NoError(t, <-firstDone)
}

func TestContinuationIdentifierLifecycle(t *testing.T) {
	var requests []AnalyzeRequest
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeAnalyzeRequest(t, r)
		requests = append(requests, req)
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{
			Response:       "Here is what I found.",
			ConversationID: "c-99",
		})
	})

	_, err := session.Send(context.Background(), "What are my recurring subscriptions?")
	require.NoError(t, err)

	// First turn carries no identifier; no history field in the response
	// means local append: user + assistant.
	require.Empty(t, requests[0].ConversationID)
	transcript := session.Transcript()
	require.Len(t, transcript, 2)
	require.Equal(t, RoleUser, transcript[0].Role)
	require.Equal(t, RoleAssistant, transcript[1].Role)
	require.Equal(t, "c-99", session.ConversationID())

	_, err = session.Send(context.Background(), "And fees?")
	require.NoError(t, err)
	require.Equal(t, "c-99", requests[1].ConversationID)
}

func TestServerTranscriptReplacesLocal(t *testing.T) {
	authoritative := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
		{Role: RoleUser, Content: "totals?"},
		{Role: RoleAssistant, Content: "$120.50 this month"},
	}
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{
			Response:       "$120.50 this month",
			ConversationID: "c-1",
			History:        authoritative,
		})
	})

	_, err := session.Send(context.Background(), "totals?")
	require.NoError(t, err)

	// Full replacement, no merge with the optimistic local transcript.
	require.Equal(t, authoritative, session.Transcript())
}

func TestResetClearsIdentifierAndTranscript(t *testing.T) {
	var requests []AnalyzeRequest
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, decodeAnalyzeRequest(t, r))
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{Response: "ok", ConversationID: "c-7"})
	})

	_, err := session.Send(context.Background(), "first question")
	require.NoError(t, err)
	require.Equal(t, "c-7", session.ConversationID())

	session.Reset()
	session.Reset() // idempotent
	require.Empty(t, session.ConversationID())
	require.Empty(t, session.Transcript())

	_, err = session.Send(context.Background(), "fresh start")
	require.NoError(t, err)
	require.Empty(t, requests[1].ConversationID)
}

func TestSendFailureKeepsOptimisticMessage(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"message": "analysis backend down"})
	})

	transcript, err := session.Send(context.Background(), "what happened?")
	require.EqualError(t, err, "analysis backend down")

	require.Len(t, transcript, 1)
	require.Equal(t, RoleUser, transcript[0].Role)
	require.Equal(t, "what happened?", transcript[0].Content)

	// And a retry is just a repeated Send
	require.Len(t, session.Transcript(), 1)
}

func TestIdentifierPersistsAcrossSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, AnalyzeResponse{Response: "ok", ConversationID: "c-42"})
	}))
	t.Cleanup(server.Close)

	store := NewMemStore()
	first := NewSession(New(server.URL, store))
	_, err := first.Send(context.Background(), "remember me")
	require.NoError(t, err)

	// A new session over the same store restores the identifier,
	// the transcript does not survive.
	second := NewSession(New(server.URL, store))
	require.Equal(t, "c-42", second.ConversationID())
	require.Empty(t, second.Transcript())
}

func TestApplyRejectedKeepsPending(t *testing.T) {
	state := SessionState{}
	state = apply(state, sendPending{text: "q"})
	require.True(t, state.InFlight)
	require.Len(t, state.Transcript, 1)

	state = apply(state, sendRejected{})
	require.False(t, state.InFlight)
	require.Len(t, state.Transcript, 1)
}
