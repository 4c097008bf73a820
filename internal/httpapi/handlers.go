package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/deeplink/internal/launch"
	"github.com/roach88/deeplink/internal/route"
)

// Error codes that do not come from the route package.
const (
	codeBadRequest = "BAD_REQUEST"
	codeNotLaunch  = "NOT_LAUNCH_URL"
	codeInternal   = "INTERNAL"
	codeTimeout    = "TIMEOUT"
)

// CreateRequest is the body of POST /v1/links.
type CreateRequest struct {
	Route  route.Name     `json:"route"`
	Params map[string]any `json:"params"`
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorDetail carries a stable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "missing url query parameter")
		return
	}

	link, err := s.parser.Parse(r.Context(), raw)
	if err != nil {
		s.writeRouteError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, link.Resolution())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Route == "" {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "route is required")
		return
	}

	link, err := s.parser.Create(req.Route, req.Params)
	s.recorder.Built(req.Route, err)
	if err != nil {
		s.writeRouteError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, link.Resolution())
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var out []route.Summary
	for def := range s.parser.Table().Definitions() {
		out = append(out, route.Describe(def))
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"routes": out})
}

func (s *Server) handleLaunchDecode(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "missing url query parameter")
		return
	}

	req, err := s.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, launch.ErrNotLaunchURL) {
			s.writeError(w, r, http.StatusUnprocessableEntity, codeNotLaunch, err.Error())
			return
		}
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.writeJSON(w, r, http.StatusOK, req)
}

// statusFor maps route error codes to HTTP statuses.
func statusFor(code route.ErrorCode) int {
	switch code {
	case route.ErrCodeNoMatch, route.ErrCodeUnknownRoute:
		return http.StatusNotFound
	case route.ErrCodeMalformedURL:
		return http.StatusBadRequest
	case route.ErrCodeMissingParameter, route.ErrCodeInvalidParameter:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	if code := route.CodeOf(err); code != "" {
		s.writeError(w, r, statusFor(code), string(code), err.Error())
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, r, http.StatusGatewayTimeout, codeTimeout, err.Error())
		return
	}
	s.logger.Error("request failed", "request_id", RequestID(r.Context()), "error", err)
	s.writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, ErrorBody{
		Error:     ErrorDetail{Code: code, Message: message},
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}
