package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/calendarbot"
	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/adapters/oauth"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/aretw0/calendarbot/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MsgTooFast is the reply to users over their rate limit.
const MsgTooFast = "You're sending messages too fast. Please slow down."

// SignInCompleter finishes an OAuth sign-in started from a sign-in card.
type SignInCompleter interface {
	Complete(ctx context.Context, state, code string) (oauth.Completion, error)
}

// TurnRequest is the body of POST /api/messages.
type TurnRequest struct {
	Type           domain.TurnType `json:"type,omitempty"`
	ConversationID string          `json:"conversation_id"`
	UserID         string          `json:"user_id"`
	Text           string          `json:"text,omitempty"`
	Name           string          `json:"name,omitempty"`
	Value          any             `json:"value,omitempty"`
	MembersAdded   []string        `json:"members_added,omitempty"`
	RecipientID    string          `json:"recipient_id,omitempty"`
}

// TurnResponse carries the bot's replies.
type TurnResponse struct {
	Messages []domain.Message `json:"messages"`
}

// Server exposes a TurnHandler over HTTP.
type Server struct {
	Bot     ports.TurnHandler
	Streams *StreamManager

	auth    SignInCompleter
	apiKeys []string
	limiter *userLimiter
	metrics http.Handler
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithSignIn enables GET /auth/callback.
func WithSignIn(c SignInCompleter) Option {
	return func(s *Server) { s.auth = c }
}

// WithAPIKeys requires every /api request to present one of keys. The
// caller holding a key is trusted to vouch for the user_id it sends, the
// way a chat channel connector does. Empty keys are ignored.
func WithAPIKeys(keys ...string) Option {
	return func(s *Server) {
		for _, k := range keys {
			if k != "" {
				s.apiKeys = append(s.apiKeys, k)
			}
		}
	}
}

// WithRateLimit allows each user perSecond messages with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 {
			s.limiter = newUserLimiter(perSecond, burst)
		}
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler creates the HTTP handler for bot.
func NewHandler(bot ports.TurnHandler, opts ...Option) http.Handler {
	s := &Server{
		Bot:    bot,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if len(s.apiKeys) > 0 {
			r.Use(RequireAPIKey(s.apiKeys))
		}
		r.Post("/messages", s.PostMessage)
		r.Get("/flows", s.GetFlows)
		r.Get("/conversations/{conversation}/users/{user}/events", s.SubscribeEvents)
	})
	if s.auth != nil {
		r.Get("/auth/callback", s.AuthCallback)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostMessage handles POST /api/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostMessage: invalid request body", "err", err)
		return
	}

	turn := domain.Turn{
		ID:           middleware.GetReqID(r.Context()),
		Type:         body.Type,
		Key:          domain.SessionKey{ConversationID: body.ConversationID, UserID: body.UserID},
		Text:         body.Text,
		Name:         body.Name,
		Value:        body.Value,
		MembersAdded: body.MembersAdded,
		RecipientID:  body.RecipientID,
		Timestamp:    s.now(),
	}
	if turn.Type == "" {
		turn.Type = domain.TurnMessage
	}
	if !turn.Key.Valid() {
		http.Error(w, "conversation_id and user_id are required", http.StatusBadRequest)
		return
	}

	if turn.IsMessage() {
		clean, err := runner.SanitizeInput(turn.Text)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("PostMessage: input rejected", "err", err, "size", len(turn.Text))
			return
		}
		turn.Text = clean

		if s.limiter != nil && !s.limiter.Allow(turn.Key.UserID, s.now()) {
			writeJSON(w, http.StatusTooManyRequests, TurnResponse{Messages: []domain.Message{domain.TextMessage(MsgTooFast)}})
			return
		}
	}

	msgs, err := s.turn(r.Context(), turn)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidSessionKey) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Turn error: %v", err), status)
		return
	}
	writeJSON(w, http.StatusOK, TurnResponse{Messages: nonNil(msgs)})
}

// turn runs the bot and mirrors the replies to the session's streams.
func (s *Server) turn(ctx context.Context, turn domain.Turn) ([]domain.Message, error) {
	msgs, err := s.Bot.Turn(ctx, turn)
	if err != nil {
		s.logger.Error("turn failed", "session", turn.Key.String(), "err", err)
		return nil, err
	}
	if len(msgs) > 0 {
		if data, err := json.Marshal(msgs); err == nil {
			s.Streams.Broadcast(turn.Key.ID(), string(data))
		}
	}
	return msgs, nil
}

// AuthCallback handles the identity provider redirect. It stores the token,
// resumes the waiting sign-in prompt and pushes the replies over SSE.
func (s *Server) AuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.logger.Warn("sign-in refused", "error", e, "description", q.Get("error_description"))
		writePage(w, http.StatusUnauthorized, "Sign-in failed", "You can close this window and try again.")
		return
	}

	done, err := s.auth.Complete(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, oauth.ErrUnknownState) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("sign-in callback failed", "err", err)
		writePage(w, status, "Sign-in failed", "This sign-in link has expired. Please ask the bot for a new one.")
		return
	}

	if _, err := s.turn(r.Context(), domain.NewTokenTurn(done.Key, done.Token)); err != nil {
		writePage(w, http.StatusInternalServerError, "Sign-in incomplete", "Please type this code in the chat: "+done.MagicCode)
		return
	}
	writePage(w, http.StatusOK, "Signed in",
		"You can close this window. If the chat does not continue, type this code: "+done.MagicCode)
}

// GetFlows handles GET /api/flows.
func (s *Server) GetFlows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Bot.Inspect())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "calbot-http",
		"version": strings.TrimSpace(calendarbot.Version),
	})
}

// SubscribeEvents streams the replies of one session as server-sent events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	key := domain.SessionKey{
		ConversationID: chi.URLParam(r, "conversation"),
		UserID:         chi.URLParam(r, "user"),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(key.ID())
	defer cancel()
	s.logger.Info("SSE: subscribed", "session", key.String())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session", key.String())
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePage(w http.ResponseWriter, status int, title, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(text))
}

func nonNil(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}
