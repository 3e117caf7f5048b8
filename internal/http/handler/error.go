package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"stddocs/internal/http/middleware"
	"stddocs/internal/intake"
	"stddocs/internal/model"
	"stddocs/internal/repository"
	"stddocs/internal/service"
	"stddocs/internal/session"
	"stddocs/internal/storage"
	"stddocs/internal/upload"
	"stddocs/internal/workspace"
)

// errorPayload defines the standardized error response body.
// Workspace is set when a rejected workspace operation still changed visible state,
// such as a form validation message.
type errorPayload struct {
	RequestID string              `json:"request_id"`
	Error     errorEnvelope       `json:"error"`
	Workspace *workspace.Snapshot `json:"workspace,omitempty"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	return middleware.GetRequestID(c)
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// classify maps a domain error to its HTTP status, code and safe message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", "document not found"
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound, "WORKSPACE_NOT_FOUND", "workspace not found"
	case errors.Is(err, service.ErrNoFile):
		return fiber.StatusNotFound, "FILE_NOT_FOUND", "document has no stored file"
	case errors.Is(err, service.ErrIDRequired):
		return fiber.StatusBadRequest, "INVALID_ID", "id is required"
	case errors.Is(err, model.ErrNameLength):
		return fiber.StatusUnprocessableEntity, "INVALID_NAME", model.ErrNameLength.Error()
	case errors.Is(err, model.ErrInvalidStandardType):
		return fiber.StatusBadRequest, "INVALID_TYPE", "type must be one of NATIONAL, INDUSTRY, REGIONAL"
	case errors.Is(err, upload.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", upload.Reason(err)
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		return fiber.StatusUnprocessableEntity, "FILE_TYPE_NOT_ALLOWED", upload.Reason(err)
	case errors.Is(err, service.ErrFileRequired), errors.Is(err, intake.ErrFileRequired):
		return fiber.StatusUnprocessableEntity, "FILE_REQUIRED", intake.ErrFileRequired.Error()
	case errors.Is(err, intake.ErrFormClosed):
		return fiber.StatusConflict, "FORM_CLOSED", "intake form is not open"
	case errors.Is(err, intake.ErrInvalidSource):
		return fiber.StatusBadRequest, "INVALID_SOURCE", "source must be picker or drop"
	case errors.Is(err, storage.ErrPresignUnsupported):
		return fiber.StatusNotImplemented, "NOT_SUPPORTED", "download urls are not available for this storage backend"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// writeServiceError translates err and logs anything that is not a client error.
func writeServiceError(c *fiber.Ctx, err error) error {
	status, code, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromCtx(c),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return writeError(c, status, code, msg)
}

// writeWorkspaceError is writeServiceError for workspace operations that return
// a saved snapshot together with a validation error.
func writeWorkspaceError(c *fiber.Ctx, snap workspace.Snapshot, err error) error {
	if snap.ID == "" {
		return writeServiceError(c, err)
	}
	status, code, msg := classify(err)
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: msg},
		Workspace: &snap,
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", upload.ErrFileTooLarge.Error())
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
