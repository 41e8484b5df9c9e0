// Package httpx holds the response envelopes, error mapping and content
// negotiation shared by every HTTP handler.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/hedgefund/internal/domain"
)

// Content types understood by the API
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// Error codes that have no domain.ErrorKind
const (
	CodeInternalError  = "INTERNAL_SERVER_ERROR"
	CodeTimeout        = "REQUEST_TIMEOUT"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotFound       = "NOT_FOUND"
	CodeMethodNotAllow = "METHOD_NOT_ALLOWED"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// ErrorDetail describes one problem with a request
type ErrorDetail struct {
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Status  string        `json:"status"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

// SuccessResponse is the success envelope
type SuccessResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// WantsMsgpack reports whether the client asked for a MessagePack response
func WantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case ContentTypeMsgpack, "application/x-msgpack":
			return true
		case ContentTypeJSON:
			return false
		}
	}
	return false
}

// Write encodes data as MessagePack when the client asked for it and as JSON
// otherwise
func Write(w http.ResponseWriter, r *http.Request, status int, data interface{}, log zerolog.Logger) {
	if r != nil && WantsMsgpack(r) {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(data); err != nil {
			log.Error().Err(err).Msg("Failed to encode msgpack response")
			writeJSON(w, http.StatusInternalServerError, internalError(), log)
			return
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Debug().Err(err).Msg("Failed to write msgpack response")
		}
		return
	}

	writeJSON(w, status, data, log)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteSuccess writes data inside the success envelope
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, log zerolog.Logger) {
	Write(w, r, status, SuccessResponse{Status: "success", Data: data}, log)
}

// WriteError writes the error envelope
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details []ErrorDetail, log zerolog.Logger) {
	if details == nil {
		details = []ErrorDetail{}
	}
	Write(w, r, status, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Details: details,
	}, log)
}

// StatusFor maps an error to a status code and error code. AGENT_NOT_FOUND
// maps to 404; handlers validating a batch request override it to 400.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeTimeout
	}

	switch kind := domain.KindOf(err); kind {
	case domain.KindAgentNotFound:
		return http.StatusNotFound, string(kind)
	case domain.KindInvalidRequest:
		return http.StatusBadRequest, string(kind)
	case domain.KindAnalysisFailed,
		domain.KindAgentConstructionFailed,
		domain.KindAgentExecutionFailed,
		domain.KindTickerYieldedNoResults,
		domain.KindPortfolioDecisionFailed:
		return http.StatusInternalServerError, string(domain.KindAnalysisFailed)
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// WriteDomainError maps err with StatusFor and writes the error envelope.
// Server-side faults are logged; their causes are not returned to the client.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error, log zerolog.Logger) {
	status, code := StatusFor(err)

	message := err.Error()
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Message != "" {
		message = derr.Message
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Int("status", status).Msg("Request failed")
		switch code {
		case CodeTimeout:
			message = "The request did not complete in time"
		case CodeInternalError:
			message = "An unexpected error occurred."
		}
	}

	WriteError(w, r, status, code, message, nil, log)
}

func internalError() ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Code:    CodeInternalError,
		Message: "An unexpected error occurred.",
		Details: []ErrorDetail{},
	}
}

// Decode reads a JSON or MessagePack request body into v, by Content-Type.
// Failures are INVALID_REQUEST errors.
func Decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return domain.InvalidRequest("request body is required")
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return domain.InvalidRequest("failed to read request body: %v", err)
	}
	if len(body) > maxBodyBytes {
		return domain.InvalidRequest("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.InvalidRequest("request body is required")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == ContentTypeMsgpack || mediaType == "application/x-msgpack" {
		dec := msgpack.NewDecoder(bytes.NewReader(body))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(v); err != nil {
			return domain.InvalidRequest("invalid msgpack body: %v", err)
		}
		return nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		return domain.InvalidRequest("invalid JSON body: %s", describeJSONError(err))
	}
	return nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type.String())
	}
	return err.Error()
}
