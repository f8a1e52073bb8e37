package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	goa "goa.design/goa/v3/pkg"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

type errorKind struct {
	name   string
	status int
}

var errorKinds = map[apperrors.ErrorCode]errorKind{
	apperrors.ErrCodeValidation:      {"bad_request", http.StatusBadRequest},
	apperrors.ErrCodeUnauthorized:    {"unauthorized", http.StatusUnauthorized},
	apperrors.ErrCodeForbidden:       {"forbidden", http.StatusForbidden},
	apperrors.ErrCodeNotFound:        {"not_found", http.StatusNotFound},
	apperrors.ErrCodeConflict:        {"conflict", http.StatusConflict},
	apperrors.ErrCodeTooManyRequests: {"too_many_requests", http.StatusTooManyRequests},
	apperrors.ErrCodeDispatch:        {"dispatch_failed", http.StatusInternalServerError},
	apperrors.ErrCodeChannelNotReady: {"dispatch_failed", http.StatusInternalServerError},
	apperrors.ErrCodeInternalError:   {"internal", http.StatusInternalServerError},
}

// decode reads the JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required")
		}
		return apperrors.Validation("invalid request body: " + err.Error())
	}
	return nil
}

// encode writes v with the given status using the negotiated encoding.
func encode(ctx context.Context, w http.ResponseWriter, status int, v any) error {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if v == nil {
		return nil
	}
	return enc.Encode(v)
}

// encodeError maps err to its goa service error and writes it. Internal
// failures are logged in full and answered with a generic message.
func (s *Server) encodeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := errorKinds[apperrors.CodeOf(err)]
	if !ok {
		kind = errorKinds[apperrors.ErrCodeInternalError]
	}

	msg := apperrors.MessageOf(err)
	if kind.status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		if kind.name == "internal" {
			msg = "internal server error"
		}
	}

	svcErr := goa.NewServiceError(errors.New(msg), kind.name, false, false, kind.status >= http.StatusInternalServerError)
	body := ErrorBody{Name: svcErr.Name, ID: svcErr.ID, Message: svcErr.Message}
	if encErr := encode(ctx, w, kind.status, body); encErr != nil {
		s.log.Warn("failed to encode error response", zap.Error(encErr))
	}
}

// bearer extracts the token from an Authorization header.
func bearer(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, cred, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(cred)
	}
	return ""
}
