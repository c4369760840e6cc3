package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/services"
)

// ContextAction lets a handler name the action it dispatched for the audit
// entry. Without it the action comes from the query string or the verb.
const ContextAction = "audit_action"

const maxAuditBody = 2000

var sensitiveKeys = []string{"password", "old_password", "new_password", "secret", "token", "api_key"}

// AuditLog records every write request to sink after the handler has run.
func AuditLog(sink services.ActivitySink) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if !isWrite(method) || sink == nil {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		details := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			details["query"] = q
		}
		if b := auditBody(body); b != nil {
			details["body"] = b
		}

		entry := &services.ActivityEntry{
			Username:  GetUsername(c),
			Action:    auditAction(c),
			Module:    routeModule(c.FullPath()),
			Details:   details,
			IPAddress: c.ClientIP(),
			CreatedAt: time.Now(),
		}
		if uid := GetUserID(c); uid > 0 {
			entry.UserID = &uid
		}
		sink.Record(entry)
	}
}

func auditAction(c *gin.Context) string {
	if action := c.GetString(ContextAction); action != "" {
		return action
	}
	if action := c.Query("action"); action != "" {
		return action
	}
	switch c.Request.Method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	}
	return strings.ToLower(c.Request.Method)
}

// routeModule maps "/api/activity-logs/:id" to "activity_logs".
func routeModule(fullPath string) string {
	path := strings.TrimPrefix(fullPath, "/api/")
	module := strings.SplitN(path, "/", 2)[0]
	if module == "" {
		return "unknown"
	}
	return strings.ReplaceAll(module, "-", "_")
}

// auditBody returns the decoded body with sensitive fields masked, or the
// truncated raw text when it is not a JSON object.
func auditBody(body []byte) interface{} {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		maskSensitive(obj)
		return obj
	}

	s := string(body)
	if len(s) > maxAuditBody {
		s = s[:maxAuditBody] + "...[truncated]"
	}
	return s
}

func maskSensitive(obj map[string]interface{}) {
	for k, v := range obj {
		if isSensitive(k) {
			obj[k] = "***"
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			maskSensitive(nested)
		}
	}
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
