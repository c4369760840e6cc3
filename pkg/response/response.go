package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Kind classifies an AppError.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindDataAccess   Kind = "data_access"
)

// AppError is a structured application error carrying its HTTP status.
type AppError struct {
	HTTPStatus int
	Kind       Kind
	Message    string
	Errors     interface{} // optional details rendered as "errors"
	Err        error       // underlying cause, never rendered verbatim for data access failures
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithErrors attaches a detail payload and returns the same error.
func (e *AppError) WithErrors(details interface{}) *AppError {
	e.Errors = details
	return e
}

func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Kind: KindForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Kind: KindConflict, Message: msg}
}

// NewDataAccess wraps a storage failure. msg is what the client sees.
func NewDataAccess(msg string, err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Kind: KindDataAccess, Message: msg, Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// --- Gin response helpers ---

// Success sends a 200 OK envelope.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 Created envelope.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error converts err into a failure envelope. AppErrors keep their status and
// details, binding errors become validation failures, anything else is
// reported as a data access failure.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Kind == KindDataAccess && appErr.Err != nil {
			_ = c.Error(appErr.Err)
		}
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Errors,
		})
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Validation failed",
			Errors:  FieldErrors(verrs),
		})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Message: "Internal server error",
		Errors:  map[string]string{"error": err.Error()},
	})
}

// BindError reports a request body or query that could not be decoded.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Error(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: "Invalid request",
		Errors:  map[string]string{"body": err.Error()},
	})
}

// FieldErrors turns validator errors into a json-field → message map.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = humanize(field) + " is required"
		case "oneof":
			out[field] = humanize(field) + " must be one of: " + fe.Param()
		case "min":
			out[field] = humanize(field) + " must be at least " + fe.Param()
		case "max":
			out[field] = humanize(field) + " must be at most " + fe.Param()
		default:
			out[field] = humanize(field) + " is invalid"
		}
	}
	return out
}

// Convenience failure helpers

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Success: false, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Success: false, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: msg})
}

func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, Response{Success: false, Message: "Method not allowed"})
}

// toSnake keeps acronyms whole: "ParentID" becomes "parent_id".
func toSnake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if isUpper(r) {
			if i > 0 && (!isUpper(rs[i-1]) || (i+1 < len(rs) && isLower(rs[i+1]))) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
