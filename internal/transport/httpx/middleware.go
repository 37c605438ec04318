package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
	"github.com/you/nosmoke/pkg/auth"
)

const (
	ctxSub       = "sub"
	ctxRole      = "role"
	ctxEmail     = "email"
	ctxRequestID = "request_id"
)

// JWTAuth validates the bearer token and stores its claims on the context.
func JWTAuth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := signer.ParseValidate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(ctxSub, claims.Sub)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[c.GetString(ctxRole)]; !ok {
			abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// RequestLogger tags each request with an id and logs it once it completes,
// including any errors handlers attached with c.Error.
func RequestLogger(lg *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header("X-Request-ID", rid)

		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", rid,
		}
		if sub := c.GetString(ctxSub); sub != "" {
			kv = append(kv, "user", sub)
		}
		switch {
		case len(c.Errors) > 0:
			lg.Error("request failed", append(kv, "err", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			lg.Error("request", kv...)
		default:
			lg.Info("request", kv...)
		}
	}
}

func callerFrom(c *gin.Context) service.Caller {
	return service.Caller{ID: c.GetString(ctxSub), Role: domain.Role(c.GetString(ctxRole))}
}
