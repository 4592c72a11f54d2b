package httpserver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/logging"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// decodeError classifies body decoding failures as invalid input.
func decodeError(err error) error {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var sizeError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("%w: malformed JSON payload", domain.ErrInvalidInput)
	case errors.As(err, &typeError):
		return fmt.Errorf("%w: invalid value for field %s", domain.ErrInvalidInput, typeError.Field)
	case errors.As(err, &sizeError):
		return fmt.Errorf("%w: request body too large", domain.ErrInvalidInput)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: request body cannot be empty", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unable to parse request body", domain.ErrInvalidInput)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// respondCode writes the error envelope for a fixed status and code.
func (s *Server) respondCode(w http.ResponseWriter, status int, code string) {
	s.respondJSON(w, status, errorResponse{Error: s.messages.For(code), Code: code})
}

// respondError maps err onto a status and stable code. Only invalid input
// carries details; server-side failures are logged and reported generically.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	resp := errorResponse{Error: s.messages.For(code), Code: code}
	switch {
	case status == http.StatusBadRequest:
		resp.Details = err.Error()
	case status >= http.StatusInternalServerError:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("code", code).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	s.respondJSON(w, status, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, i18n.CodeInvalidInput
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, i18n.CodeUnauthenticated
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, i18n.CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, i18n.CodeConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusInternalServerError, i18n.CodeUpstreamUnavailable
	default:
		return http.StatusInternalServerError, i18n.CodeInternal
	}
}

func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
