package apiServer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/i5heu/prolix"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 4 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	switch prolix.KindOf(err) {
	case prolix.KindEmptyInput, prolix.KindMissingKeyOrText,
		prolix.KindDecodeError, prolix.KindMalformedSequence:
		return http.StatusBadRequest
	case prolix.KindNotFoundOrExpired:
		return http.StatusNotFound
	case prolix.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func messagesFor(err error) []string {
	var perr *prolix.Error
	if errors.As(err, &perr) {
		return perr.Messages()
	}
	return []string{http.StatusText(http.StatusInternalServerError)}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	status := statusFor(err)
	entry := s.log.WithFields(logrus.Fields{
		"request_id": requestID(r),
		"kind":       prolix.KindOf(err).String(),
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Warn("request failed")
	} else {
		entry.Debug("request rejected")
	}

	s.writeJSON(w, status, errorResponse{
		Kind:   prolix.KindOf(err).String(),
		Errors: messagesFor(err),
	})
	return status
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// observe records the outcome of one operation.
func observe(operation string, started time.Time, status int, err error) {
	reason := "ok"
	if err != nil {
		reason = prolix.KindOf(err).String()
	}
	metricRequestsCount.WithLabelValues(operation, strconv.Itoa(status), reason).Inc()
	metricOperationDurationSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithAuth(auth AuthFunc) Option {
	return func(s *Server) {
		if auth != nil {
			s.auth = auth
		}
	}
}

// WithHealthCheck sets the probe /healthz runs.
func WithHealthCheck(check HealthFunc) Option {
	return func(s *Server) {
		if check != nil {
			s.health = check
		}
	}
}

// WithFormExpiration sets the descriptor lifetime used by the HTML form.
func WithFormExpiration(seconds int) Option {
	return func(s *Server) {
		if seconds > 0 {
			s.formExpiration = seconds
		}
	}
}
