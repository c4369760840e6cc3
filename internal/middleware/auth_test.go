package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func protectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"role":     GetRole(c),
		})
	}
	router.GET("/protected", ok)
	router.POST("/protected", ok)
	return router
}

func TestAuthRequired_Rejects(t *testing.T) {
	router := protectedRouter(AuthRequired())

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"no scheme", "InvalidToken"},
		{"basic scheme", "Basic token123"},
		{"bearer without token", "Bearer"},
		{"bearer blank token", "Bearer  "},
		{"garbage token", "Bearer invalid.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
			var resp map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["success"] != false {
				t.Errorf("expected failure envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	token, _ := utils.GenerateToken(7, "principal", "admin", 1)
	router := protectedRouter(AuthRequired())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["user_id"] != float64(7) || resp["username"] != "principal" || resp["role"] != "admin" {
		t.Errorf("unexpected context values: %v", resp)
	}
}

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(ContextRole, role)
		}
		c.Next()
	}
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		role   string
		status int
	}{
		{"", http.StatusForbidden},
		{"staff", http.StatusForbidden},
		{"admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			router := protectedRouter(withRole(tt.role), AdminRequired())
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/protected", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestAdminForWrites(t *testing.T) {
	tests := []struct {
		method string
		role   string
		status int
	}{
		{"GET", "staff", http.StatusOK},
		{"POST", "staff", http.StatusForbidden},
		{"POST", "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+"/"+tt.role, func(t *testing.T) {
			router := protectedRouter(withRole(tt.role), AdminForWrites())
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, "/protected", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestContextGetters(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUserID(c) != 0 || GetUsername(c) != "" || GetRole(c) != "" {
		t.Error("getters should return zero values on an empty context")
	}

	c.Set(ContextUserID, uint(42))
	c.Set(ContextUsername, "clerk")
	c.Set(ContextRole, "staff")
	if GetUserID(c) != 42 || GetUsername(c) != "clerk" || GetRole(c) != "staff" {
		t.Errorf("got %d/%s/%s", GetUserID(c), GetUsername(c), GetRole(c))
	}
}
