package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"newsdesk/internal/store"
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

// ErrorResponse is the failure envelope. Error carries the human-readable
// message shown to operators.
type ErrorResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  404,
		Message: fmt.Sprintf("Unknown entity: %s", name),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	msg := "Validation failed"
	if len(details) > 0 {
		msg = details[0].Message
	}
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: msg,
		Details: details,
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}

func UnknownFieldError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "UNKNOWN_FIELD",
		Status:  400,
		Message: details[0].Message,
		Details: details,
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

// ToResponse converts any error into the failure envelope and its status.
func ToResponse(err error) (int, ErrorResponse) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, ErrorResponse{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details}
	}

	if errors.Is(err, store.ErrUniqueViolation) {
		return 409, ErrorResponse{Error: "A record with this value already exists", Code: "CONFLICT"}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "INTERNAL_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest:
			code = "INVALID_PAYLOAD"
		}
		return fe.Code, ErrorResponse{Error: fe.Message, Code: code}
	}

	return 500, ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"}
}

// NewErrorHandler returns the fiber ErrorHandler rendering every error as
// the failure envelope. Unexpected errors are logged, never echoed.
func NewErrorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, resp := ToResponse(err)
		if status >= 500 {
			logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		}
		return c.Status(status).JSON(resp)
	}
}
