package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Options{Token: "secret"})
	s.AddPartner(api.Partner{ID: "p1", DisplayName: "Alice", Emoji: "🦊"})
	s.AddPartner(api.Partner{ID: "p2", DisplayName: "Bob", Emoji: "🐻"})
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "twa secret")
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, header := range []string{"", "twa", "twa wrong", "bearer secret"} {
		req := httptest.NewRequest(http.MethodGet, "/chats", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
	}
}

func TestListChatsOrdersByRecency(t *testing.T) {
	s := newTestServer(t)
	_, err := s.Deliver("p2", "hi there")
	require.NoError(t, err)

	rr := do(t, s, http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Chats []api.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Chats, 2)
	assert.Equal(t, api.PartnerID("p2"), resp.Chats[0].PartnerID)
	require.NotNil(t, resp.Chats[0].LastMessagePreview)
	assert.Equal(t, "hi there", *resp.Chats[0].LastMessagePreview)
	assert.Equal(t, 1, resp.Chats[0].UnreadCount)
	assert.Nil(t, resp.Chats[1].LastMessagePreview)
}

func TestSendAndFetchMessages(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/chats/p1/messages", `{"text":"  hello  "}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var sent struct {
		Message api.Message `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sent))
	assert.Equal(t, "hello", sent.Message.Text)
	assert.True(t, sent.Message.IsOwn)
	assert.Equal(t, int64(1), sent.Message.ID)

	_, err := s.Deliver("p1", "reply")
	require.NoError(t, err)

	rr = do(t, s, http.MethodGet, "/chats/p1/messages?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var conv api.Conversation
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&conv))
	assert.Equal(t, "Alice", conv.Partner.DisplayName)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "reply", conv.Messages[0].Text)
	assert.False(t, conv.Messages[0].IsOwn)
}

func TestSendValidation(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/chats/p1/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodPost, "/chats/p1/messages", `{"text":"`+strings.Repeat("a", api.MaxMessageLength+1)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodPost, "/chats/nobody/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBlockRemovesChat(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/chats/p1/block", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, s.Blocked("p1"))

	rr = do(t, s, http.MethodGet, "/chats", "")
	var resp struct {
		Chats []api.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, api.PartnerID("p2"), resp.Chats[0].PartnerID)

	rr = do(t, s, http.MethodGet, "/chats/p1/messages", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAutoReply(t *testing.T) {
	s := New(Options{AutoReply: true})
	s.AddPartner(api.Partner{ID: "p1", DisplayName: "Alice"})

	req := httptest.NewRequest(http.MethodPost, "/chats/p1/messages", strings.NewReader(`{"text":"ping"}`))
	req.Header.Set("Authorization", "twa anything")
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	msgs := s.Messages("p1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "echo: ping", msgs[1].Text)
	assert.Greater(t, msgs[1].ID, msgs[0].ID)
}
