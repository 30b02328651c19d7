package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/content"
	"portfolio-backend/internal/ordering"
	"portfolio-backend/internal/schema"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(collection, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with id %s not found", collection, id),
	}
}

func UnknownCollectionError(id string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_COLLECTION",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("Unknown collection: %s", id),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Details: details,
	}
}

func invalidPayload(msg string) *AppError {
	return NewAppError("INVALID_PAYLOAD", http.StatusBadRequest, msg)
}

// toAppError classifies err for the response envelope. The second result
// is false for errors that are not the caller's fault.
func toAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "HTTP_ERROR"
		switch fiberErr.Code {
		case fiber.StatusUnauthorized:
			code = "UNAUTHORIZED"
		case fiber.StatusForbidden:
			code = "FORBIDDEN"
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return NewAppError(code, fiberErr.Code, fiberErr.Message), fiberErr.Code < 500
	}

	var partial *ordering.PartialMoveError
	if errors.As(err, &partial) {
		details := make([]ErrorDetail, 0, len(partial.Updated)+len(partial.Failed))
		for _, id := range partial.Updated {
			details = append(details, ErrorDetail{Field: id, Rule: "updated", Message: "position written"})
		}
		for _, id := range partial.Failed {
			details = append(details, ErrorDetail{Field: id, Rule: "failed", Message: "position not written"})
		}
		return &AppError{
			Code:    "PARTIAL_MOVE",
			Status:  http.StatusConflict,
			Message: "Move was only partially applied; re-read the list before retrying",
			Details: details,
		}, true
	}

	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		details := make([]ErrorDetail, len(verr.Problems))
		for i, p := range verr.Problems {
			details[i] = ErrorDetail{Field: verr.Collection, Message: p}
		}
		return ValidationError(details), true
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewAppError("UNAUTHORIZED", http.StatusUnauthorized, "Invalid email or password"), true
	case errors.Is(err, ordering.ErrItemNotFound):
		return NewAppError("NOT_FOUND", http.StatusNotFound, err.Error()), true
	case errors.Is(err, ordering.ErrInvalidDirection):
		return invalidPayload(`direction must be "up" or "down"`), true
	case errors.Is(err, content.ErrNotOrdered):
		return NewAppError("NOT_ORDERED", http.StatusBadRequest, err.Error()), true
	case errors.Is(err, content.ErrUngrouped):
		return NewAppError("NOT_ORDERED", http.StatusBadRequest, err.Error()), true
	}

	var backendErr *baas.Error
	if errors.As(err, &backendErr) {
		switch backendErr.Status {
		case http.StatusNotFound:
			return NewAppError("NOT_FOUND", http.StatusNotFound, backendErr.Message), true
		case http.StatusConflict:
			return NewAppError("CONFLICT", http.StatusConflict, backendErr.Message), true
		case http.StatusBadRequest:
			return invalidPayload(backendErr.Message), true
		}
		return NewAppError("BACKEND_ERROR", http.StatusBadGateway, "Content backend unavailable"), false
	}

	return NewAppError("INTERNAL_ERROR", http.StatusInternalServerError, "Internal server error"), false
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr, expected := toAppError(err)
		if !expected {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}
}
