package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/internal/middleware"
	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/internal/services"
	"github.com/techupgradenow/edumanage/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-test-secret")
}

type testEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	school  uint
	college uint
}

// newTestEnv seeds the default taxonomy into an in-memory database and mounts
// the handlers. The role header stands in for a verified token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := models.Open(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := models.SeedDefaultData(db, &config.AdminConfig{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	institutions := services.NewInstitutionService(db)
	dropdowns := services.NewDropdownService(db, services.NewMemoryDropdownCache(5*time.Minute))
	dh := NewDropdownHandler(dropdowns, institutions)
	ih := NewInstitutionHandler(institutions)
	ah := NewAuthHandler(services.NewAuthService(db, &config.JWTConfig{ExpireHour: 1}))

	r := gin.New()
	r.POST("/api/auth/login", ah.Login)

	api := r.Group("/api", func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(middleware.ContextRole, role)
			c.Set(middleware.ContextUserID, uint(1))
		}
		c.Next()
	}, middleware.AdminForWrites())
	api.GET("/dropdowns", dh.Get)
	api.POST("/dropdowns", dh.Post)
	api.PUT("/dropdowns", dh.Update)
	api.DELETE("/dropdowns", dh.Delete)
	api.GET("/institution", ih.Get)
	api.POST("/institution", ih.Post)
	api.GET("/auth/me", ah.GetCurrentUser)

	env := &testEnv{db: db, router: r}
	var school, college models.InstitutionType
	db.Where("name = ?", "School").First(&school)
	db.Where("name = ?", "College").First(&college)
	env.school, env.college = school.ID, college.ID
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (e *testEnv) do(t *testing.T, method, url string, body interface{}) (int, envelope) {
	t.Helper()
	return e.doAs(t, models.RoleAdmin, method, url, body)
}

func (e *testEnv) doAs(t *testing.T, role, method, url string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", role)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad envelope %q: %v", method, url, w.Body.String(), err)
	}
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}
