// Package devserver is an in-memory implementation of the chat service API
// for local runs and tests.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/matheus3301/confchat/internal/api"
	"go.uber.org/zap"
)

var (
	errUnknownPartner = errors.New("chat not found")
	errBlocked        = errors.New("partner is blocked")
)

// Options configures a Server.
type Options struct {
	// Token, when set, must match the Authorization header credentials.
	Token      string
	AuthScheme string
	// AutoReply makes partners answer every message they receive.
	AutoReply bool
	Logger    *zap.Logger
	Now       func() time.Time
}

type thread struct {
	partner  api.Partner
	messages []api.Message
	unread   int
	blocked  bool
}

// Server holds conversations in memory and serves them over HTTP.
type Server struct {
	mu      sync.Mutex
	opts    Options
	threads map[api.PartnerID]*thread
	order   []api.PartnerID
	nextID  int64
	router  chi.Router
	logger  *zap.Logger
}

// New creates a server with no partners.
func New(opts Options) *Server {
	if opts.AuthScheme == "" {
		opts.AuthScheme = api.DefaultAuthScheme
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		opts:    opts,
		threads: make(map[api.PartnerID]*thread),
		logger:  logger.Named("devserver"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.authenticate)

	r.Get("/chats", s.handleListChats)
	r.Route("/chats/{partnerID}", func(r chi.Router) {
		r.Get("/messages", s.handleListMessages)
		r.Post("/messages", s.handleSendMessage)
		r.Post("/block", s.handleBlock)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddPartner registers a conversation partner. Adding an existing partner
// updates its presentation fields.
func (s *Server) AddPartner(p api.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[p.ID]; ok {
		t.partner = p
		return
	}
	s.threads[p.ID] = &thread{partner: p}
	s.order = append(s.order, p.ID)
}

// Deliver records a message written by the partner and returns it.
func (s *Server) Deliver(partnerID api.PartnerID, text string) (api.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[partnerID]
	if !ok {
		return api.Message{}, errUnknownPartner
	}
	msg := s.appendLocked(t, api.Message{Text: text})
	t.unread++
	return msg, nil
}

// DeliverSticker records a sticker sent by the partner.
func (s *Server) DeliverSticker(partnerID api.PartnerID) (api.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[partnerID]
	if !ok {
		return api.Message{}, errUnknownPartner
	}
	msg := s.appendLocked(t, api.Message{HasSticker: true})
	t.unread++
	return msg, nil
}

// Messages returns a copy of the full history with partnerID.
func (s *Server) Messages(partnerID api.PartnerID) []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[partnerID]
	if !ok {
		return nil
	}
	return append([]api.Message(nil), t.messages...)
}

// Blocked reports whether partnerID has been blocked.
func (s *Server) Blocked(partnerID api.PartnerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[partnerID]
	return ok && t.blocked
}

func (s *Server) appendLocked(t *thread, msg api.Message) api.Message {
	s.nextID++
	msg.ID = s.nextID
	msg.Timestamp = s.opts.Now().UTC()
	t.messages = append(t.messages, msg)
	return msg
}

func (s *Server) summariesLocked() []api.ChatSummary {
	ids := make([]api.PartnerID, 0, len(s.order))
	for _, id := range s.order {
		if !s.threads[id].blocked {
			ids = append(ids, id)
		}
	}
	// Most recent conversation first; partners without messages keep
	// registration order at the end.
	sort.SliceStable(ids, func(i, j int) bool {
		return lastTime(s.threads[ids[i]]).After(lastTime(s.threads[ids[j]]))
	})

	chats := make([]api.ChatSummary, 0, len(ids))
	for _, id := range ids {
		t := s.threads[id]
		summary := api.ChatSummary{
			PartnerID:    t.partner.ID,
			PartnerName:  t.partner.DisplayName,
			PartnerEmoji: t.partner.Emoji,
			UnreadCount:  t.unread,
		}
		if n := len(t.messages); n > 0 {
			last := t.messages[n-1]
			preview := last.Preview()
			ts := last.Timestamp
			summary.LastMessagePreview = &preview
			summary.LastMessageTime = &ts
			summary.IsLastMessageOwn = last.IsOwn
		}
		chats = append(chats, summary)
	}
	return chats
}

func lastTime(t *thread) time.Time {
	if n := len(t.messages); n > 0 {
		return t.messages[n-1].Timestamp
	}
	return time.Time{}
}

func (s *Server) lookupLocked(r *http.Request) (*thread, int, error) {
	id := api.PartnerID(chi.URLParam(r, "partnerID"))
	t, ok := s.threads[id]
	if !ok {
		return nil, http.StatusNotFound, errUnknownPartner
	}
	if t.blocked {
		return nil, http.StatusForbidden, errBlocked
	}
	return t, 0, nil
}

func (s *Server) handleListChats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	chats := s.summariesLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := api.DefaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, code, err := s.lookupLocked(r)
	if err != nil {
		writeError(w, code, err.Error())
		return
	}
	msgs := t.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	t.unread = 0
	writeJSON(w, http.StatusOK, api.Conversation{
		Partner:  t.partner,
		Messages: append([]api.Message{}, msgs...),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	text, err := api.NormalizeText(body.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, code, err := s.lookupLocked(r)
	if err != nil {
		writeError(w, code, err.Error())
		return
	}
	msg := s.appendLocked(t, api.Message{Text: text, IsOwn: true})
	if s.opts.AutoReply {
		s.appendLocked(t, api.Message{Text: "echo: " + text})
		t.unread++
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, code, err := s.lookupLocked(r)
	if err != nil {
		writeError(w, code, err.Error())
		return
	}
	t.blocked = true
	s.logger.Info("partner blocked", zap.String("partner_id", string(t.partner.ID)))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, creds, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != s.opts.AuthScheme || creds == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if s.opts.Token != "" && creds != s.opts.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("client_request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
