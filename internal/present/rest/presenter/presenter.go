package presenter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dandihub/dandinotes/internal/domain"
)

// Error codes carried in the error envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeEmailExists      = "EMAIL_EXISTS"
	CodeApprovalFailed   = "APPROVAL_FAILED"
	CodeInvalidLogin     = "INVALID_CREDENTIALS"
	CodeStateError       = "STATE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

type envelope struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data"`
	Message    string       `json:"message,omitempty"`
	Pagination *domain.Page `json:"pagination,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

// Created wraps a 201 response, optionally setting a Location header.
func Created(c echo.Context, data any, message, location string) error {
	if location != "" {
		c.Response().Header().Set(echo.HeaderLocation, location)
	}
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data, Message: message})
}

// Paginated wraps a page of results with its descriptor.
func Paginated(c echo.Context, data any, page domain.Page, message string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: message, Pagination: &page})
}

// Error emits the uniform error envelope.
func Error(c echo.Context, status int, code, message string, details any) error {
	return c.JSON(status, errorEnvelope{Error: apiError{Code: code, Message: message, Details: details}})
}

func ValidationFailed(c echo.Context, message string, details any) error {
	if message == "" {
		message = "Validation failed"
	}
	return Error(c, http.StatusBadRequest, CodeValidation, message, details)
}

func NotFound(c echo.Context, resource string) error {
	if resource == "" {
		resource = "Resource"
	}
	return Error(c, http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

func Unauthorized(c echo.Context, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return Error(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(c echo.Context, message string) error {
	if message == "" {
		message = "Access denied"
	}
	return Error(c, http.StatusForbidden, CodeForbidden, message, nil)
}

func Internal(c echo.Context, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, http.StatusInternalServerError, CodeInternal, message, nil)
}
