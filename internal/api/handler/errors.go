package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeAlreadyMember   ErrorCode = "ALREADY_MEMBER"
	CodeProjectInactive ErrorCode = "PROJECT_INACTIVE"
	CodeUpstream        ErrorCode = "UPSTREAM_ERROR"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   ErrorCode
}

var errorMappings = []errorMapping{
	{domain.ErrProjectNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrAlreadyMember, http.StatusConflict, CodeAlreadyMember},
	{domain.ErrProjectInactive, http.StatusConflict, CodeProjectInactive},
	{domain.ErrUpstream, http.StatusBadGateway, CodeUpstream},
	{domain.ErrValidation, http.StatusBadRequest, CodeValidation},
}

func WriteError(w http.ResponseWriter, err error, logger *logger.Logger) {
	status, response, known := mapError(err)

	if known {
		logger.Warn("domain error",
			"error", err.Error(),
			"code", response.Error.Code,
		)
	} else {
		logger.Error("unexpected error",
			"error", err.Error(),
		)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="observ"`)
	}

	writeJSON(w, status, response, logger)
}

// writeBadRequest reports a malformed request that never reached a service.
func writeBadRequest(w http.ResponseWriter, message string, logger *logger.Logger) {
	logger.Warn("bad request", "message", message)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{Code: CodeBadRequest, Message: message},
	}, logger)
}

func mapError(err error) (int, ErrorResponse, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{
				Error: ErrorDetail{
					Code:    m.code,
					Message: err.Error(),
				},
			}, true
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    CodeInternal,
			Message: "internal server error",
		},
	}, false
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
