package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, "Loaded", map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp["success"] != true {
		t.Errorf("expected success true, got %v", resp["success"])
	}
	if resp["message"] != "Loaded" {
		t.Errorf("expected message 'Loaded', got %v", resp["message"])
	}
	if _, ok := resp["errors"]; ok {
		t.Error("errors must be omitted on success")
	}
}

func TestSuccess_OmitsNilData(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, "Deleted", nil)
	})

	resp := parseResponse(t, w)
	if _, ok := resp["data"]; ok {
		t.Error("data must be omitted when nil")
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, "Created", map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	resp := parseResponse(t, w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok || data["id"] != float64(1) {
		t.Errorf("expected data.id 1, got %v", resp["data"])
	}
}

func TestConvenienceHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, http.StatusBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "token expired") }, http.StatusUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "admin required") }, http.StatusForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "resource not found") }, http.StatusNotFound},
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.fn)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp["success"] != false {
				t.Errorf("expected success false, got %v", resp["success"])
			}
			if resp["message"] == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"validation", NewValidation("Value is required"), http.StatusBadRequest},
		{"not found", NewNotFound("Category not found"), http.StatusNotFound},
		{"conflict", NewConflict("This value already exists in Gender"), http.StatusConflict},
		{"forbidden", NewForbidden("System categories cannot be deleted"), http.StatusForbidden},
		{"unauthorized", NewUnauthorized("Invalid token"), http.StatusUnauthorized},
		{"data access", NewDataAccess("Database error", errors.New("disk I/O error")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) { Error(c, tt.err) })
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp["message"] != tt.err.Message {
				t.Errorf("expected message %q, got %v", tt.err.Message, resp["message"])
			}
		})
	}
}

func TestError_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("add value: %w", NewConflict("duplicate"))
	w := performRequest(func(c *gin.Context) { Error(c, wrapped) })

	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	resp := parseResponse(t, w)
	if resp["success"] != false {
		t.Errorf("expected success false, got %v", resp["success"])
	}
}

func TestError_ValidationErrors(t *testing.T) {
	type addValue struct {
		CategoryKey string `validate:"required"`
		Value       string `validate:"required"`
	}
	err := validator.New().Struct(addValue{})

	w := performRequest(func(c *gin.Context) { Error(c, err) })

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	resp := parseResponse(t, w)
	fields, ok := resp["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected errors object, got %v", resp["errors"])
	}
	if fields["category_key"] != "Category key is required" {
		t.Errorf("unexpected category_key message: %v", fields["category_key"])
	}
	if _, ok := fields["value"]; !ok {
		t.Error("expected value field error")
	}
}

func TestError_ValidationErrorsOnIDFields(t *testing.T) {
	type updateValue struct {
		ID       uint   `validate:"required"`
		ParentID *uint  `validate:"required"`
		Value    string `validate:"max=3"`
	}
	err := validator.New().Struct(updateValue{Value: "Hindu"})

	w := performRequest(func(c *gin.Context) { Error(c, err) })

	resp := parseResponse(t, w)
	fields, _ := resp["errors"].(map[string]interface{})
	want := map[string]string{
		"id":        "Id is required",
		"parent_id": "Parent id is required",
		"value":     "Value must be at most 3",
	}
	for k, msg := range want {
		if fields[k] != msg {
			t.Errorf("errors[%q] = %v, want %q", k, fields[k], msg)
		}
	}
	if _, ok := fields["i_d"]; ok {
		t.Errorf("acronym split into letters: %v", fields)
	}
}

func TestBindError_Malformed(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		BindError(c, errors.New("unexpected EOF"))
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("Value not found")
	if err.Error() != "Value not found" {
		t.Errorf("expected 'Value not found', got %q", err.Error())
	}

	cause := errors.New("connection refused")
	dbErr := NewDataAccess("Database error", cause)
	if !errors.Is(dbErr, cause) {
		t.Error("expected data access error to unwrap to its cause")
	}
	if !IsKind(dbErr, KindDataAccess) {
		t.Error("expected IsKind to match data_access")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("plain errors have no kind")
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"CategoryKey":       "category_key",
		"Value":             "value",
		"DisplayOrder":      "display_order",
		"ID":                "id",
		"ParentID":          "parent_id",
		"InstitutionTypeID": "institution_type_id",
		"HTTPStatus":        "http_status",
		"Value2":            "value2",
	}
	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
