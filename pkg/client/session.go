package client

import (
	"context"
	"strings"
	"sync"
)

// SessionState is the client-side view of one conversation. The server
// owns the real transcript; this is the local mirror.
type SessionState struct {
	ConversationID string
	Transcript     []Message
	InFlight       bool
}

// Events driving the session state machine. Send applies sendPending
// synchronously before the network call and one of sendFulfilled or
// sendRejected when it resolves, so the sequencing is testable without
// timing-dependent mocks.
type sessionEvent interface {
	isSessionEvent()
}

type sendPending struct {
	text string
}

type sendFulfilled struct {
	reply reply
}

type sendRejected struct{}

func (sendPending) isSessionEvent()   {}
func (sendFulfilled) isSessionEvent() {}
func (sendRejected) isSessionEvent()  {}

// reply is the tagged variant of an analysis response, decided once at the
// API boundary: either the server sent a full authoritative transcript or
// a single assistant message.
type reply struct {
	fullTranscript bool
	history        []Message
	text           string
	conversationID string
}

func classifyReply(resp *AnalyzeResponse) reply {
	if len(resp.History) > 0 {
		return reply{
			fullTranscript: true,
			history:        resp.History,
			conversationID: resp.ConversationID,
		}
	}
	return reply{
		text:           resp.Response,
		conversationID: resp.ConversationID,
	}
}

// apply is the pure state-transition function for the session.
func apply(state SessionState, event sessionEvent) SessionState {
	switch ev := event.(type) {
	case sendPending:
		state.InFlight = true
		state.Transcript = append(cloneTranscript(state.Transcript), Message{
			Role:    RoleUser,
			Content: ev.text,
		})
	case sendFulfilled:
		state.InFlight = false
		if ev.reply.conversationID != "" {
			state.ConversationID = ev.reply.conversationID
		}
		if ev.reply.fullTranscript {
			state.Transcript = cloneTranscript(ev.reply.history)
		} else {
			state.Transcript = append(cloneTranscript(state.Transcript), Message{
				Role:    RoleAssistant,
				Content: ev.reply.text,
			})
		}
	case sendRejected:
		// The optimistic user message stays: a failed analysis does not
		// erase what the user asked.
		state.InFlight = false
	}
	return state
}

// Session keeps continuity of a multi-turn exchange with the analysis
// service. The conversation identifier is persisted across restarts; the
// transcript is not.
type Session struct {
	client *Client
	store  Store

	mu    sync.Mutex
	state SessionState
}

// NewSession builds a session, restoring a cached conversation identifier
// from the store when one exists.
func NewSession(c *Client) *Session {
	s := &Session{
		client: c,
		store:  c.Store(),
	}
	if id, ok := s.store.Get(KeyConversationID); ok {
		s.state.ConversationID = id
	}
	return s
}

// Send dispatches one user message. The message is appended to the local
// transcript before the network call; on success the transcript is either
// replaced by the server's authoritative history or extended with the
// single assistant reply. On failure the optimistic message is retained
// and the error is returned as-is.
//
// A blank message is rejected with ErrEmptyInput; a second Send while one
// is outstanding is rejected with ErrBusy. Neither reaches the network,
// and both return the current transcript unchanged.
func (s *Session) Send(ctx context.Context, text string) ([]Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return s.Transcript(), ErrEmptyInput
	}

	s.mu.Lock()
	if s.state.InFlight {
		transcript := cloneTranscript(s.state.Transcript)
		s.mu.Unlock()
		return transcript, ErrBusy
	}
	s.state = apply(s.state, sendPending{text: trimmed})
	req := &AnalyzeRequest{Query: trimmed}
	s.attachContinuation(req)
	s.mu.Unlock()

	resp, err := s.client.Analyze(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = apply(s.state, sendRejected{})
		return cloneTranscript(s.state.Transcript), err
	}

	s.state = apply(s.state, sendFulfilled{reply: classifyReply(resp)})
	if s.state.ConversationID != "" {
		_ = s.store.Set(KeyConversationID, s.state.ConversationID)
	}

	return cloneTranscript(s.state.Transcript), nil
}

// attachContinuation injects the cached conversation identifier when the
// request does not carry one. A request never leaves with two conflicting
// identifiers: the explicit one always wins. Callers must hold s.mu.
func (s *Session) attachContinuation(req *AnalyzeRequest) {
	if req.ConversationID == "" && s.state.ConversationID != "" {
		req.ConversationID = s.state.ConversationID
	}
}

// Reset starts a new conversation: the cached identifier and transcript
// are cleared together. Idempotent, fire-and-forget: no network call.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionState{}
	_ = s.store.Delete(KeyConversationID)
}

// Transcript returns a copy of the local transcript.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTranscript(s.state.Transcript)
}

// ConversationID returns the cached conversation identifier, empty for a
// new conversation.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ConversationID
}

func cloneTranscript(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	cloned := make([]Message, len(messages))
	copy(cloned, messages)
	return cloned
}
