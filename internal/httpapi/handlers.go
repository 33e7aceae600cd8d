package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/subscription"
	"yoruba-proverbs/internal/templates"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type subscribeResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httpapi: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// clientIP is the throttle identity. RealIP middleware has already folded
// X-Forwarded-For into RemoteAddr when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware admits subscribe attempts per client IP and exposes the
// window state via the standard RateLimit response headers.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.Limiter.Admit(r.Context(), clientIP(r))
		reset := int(math.Ceil(res.RetryAfter.Seconds()))
		w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))
		if !res.Allowed {
			writeError(w, http.StatusTooManyRequests, "Too many subscription attempts, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminAuthMiddleware gates the admin routes behind the shared x-api-key
// secret. An unset key locks the routes rather than opening them.
func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-api-key")
		if s.AdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.AdminKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Yoruba Proverbs API!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRandomProverb(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Proverbs.Random())
}

func (s *Server) handleProverbByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid proverb id")
		return
	}
	p, ok := s.Proverbs.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Proverb not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid input",
			Details: map[string]string{"body": "request body must be valid JSON"},
		})
		return
	}

	res, err := s.Subs.Subscribe(r.Context(), req.Email, req.Name)
	if err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: verr.Fields})
			return
		}
		slog.Error("httpapi: subscribe failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	resp := subscribeResponse{Warning: res.Warning}
	status := http.StatusOK
	switch res.Outcome {
	case subscription.OutcomeSubscribed:
		status = http.StatusCreated
		resp.Message = "Successfully subscribed to Yoruba Proverbs!"
		if s.Notifier != nil {
			s.Notifier.SubscriberJoined(req.Email)
		}
	case subscription.OutcomeResubscribed:
		resp.Message = "Welcome back! Your subscription has been reactivated."
	case subscription.OutcomeAlreadySubscribed:
		resp.Message = "You are already subscribed."
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := s.Subs.Unsubscribe(r.Context(), email); err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: verr.Fields})
			return
		}
		slog.Error("httpapi: unsubscribe failed", "email", email, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}

	html, err := templates.Render("unsubscribe", map[string]string{"email": email})
	if err != nil {
		slog.Error("httpapi: render unsubscribe page", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (s *Server) handleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	id, err := s.Broadcasts.CreateWeekly(r.Context(), s.Proverbs.Random())
	if err != nil {
		slog.Error("httpapi: create broadcast failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create broadcast")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "Broadcast created successfully",
		"broadcastId": id,
	})
}

func (s *Server) handleSendBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScheduledAt string `json:"scheduledAt"`
	}
	// The body is optional; an empty one means send now.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.Broadcasts.Send(r.Context(), id, req.ScheduledAt); err != nil {
		if errors.Is(err, broadcast.ErrEmptyBroadcastID) {
			writeError(w, http.StatusBadRequest, "Broadcast id is required")
			return
		}
		slog.Error("httpapi: send broadcast failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send broadcast")
		return
	}
	msg := "Broadcast sent successfully"
	if req.ScheduledAt != "" {
		msg = "Broadcast scheduled successfully"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
