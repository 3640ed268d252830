package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/logger"
	"github.com/promoflow/adkit/observability"
)

// Recovery returns a Gin middleware that recovers from panics and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered", map[string]interface{}{
					"error":     fmt.Sprintf("%v", err),
					"stack":     string(debug.Stack()),
					"path":      c.Request.URL.Path,
					"method":    c.Request.Method,
					"client_ip": c.ClientIP(),
				})
				internal := errors.Internal(fmt.Errorf("%v", err))
				c.AbortWithStatusJSON(internal.HTTPStatus, internal.ToResponse())
			}
		}()
		c.Next()
	}
}

// RequestID injects a unique X-Request-Id header into every request/response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// Tracing returns a Gin middleware that opens a span per request on the
// global tracer provider. Until observability.InitTracer runs, the
// global tracer is a no-op. The health endpoint is skipped.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		observability.SetSpanAttribute(ctx, "http.method", c.Request.Method)
		observability.SetSpanAttribute(ctx, "http.route", c.FullPath())
		if id := c.GetString("request_id"); id != "" {
			observability.SetSpanAttribute(ctx, observability.AttrRequestID, id)
		}

		c.Next()

		observability.SetSpanAttribute(ctx, observability.AttrStatus, c.Writer.Status())
		if len(c.Errors) > 0 {
			observability.SetSpanError(ctx, c.Errors.Last())
		}
	}
}

// RequestLogger returns a Gin middleware that logs every request with
// method, path, status, and latency. The health endpoint is skipped.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    path,
			"status":  status,
			"latency": latency.String(),
			"client":  c.ClientIP(),
		}
		if id := c.GetString("request_id"); id != "" {
			fields["request_id"] = id
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		logByStatus(log, fields, status)
	}
}

func isHealthEndpoint(path string) bool {
	return path == "/healthz"
}

// logByStatus logs request fields at a level based on the HTTP status code.
// If log is nil, the global logger is used.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	logErr := logger.Error
	logWarn := logger.Warn
	logDebug := logger.Debug
	if log != nil {
		logErr = log.Error
		logWarn = log.Warn
		logDebug = log.Debug
	}

	switch {
	case status >= 500:
		logErr("Request completed", fields)
	case status >= 400:
		logWarn("Request completed", fields)
	default:
		logDebug("Request completed", fields)
	}
}

// AuthConfig configures the bearer-token authentication middleware.
type AuthConfig struct {
	// TokenValidator validates a token string and returns the claims.
	TokenValidator func(token string) (map[string]interface{}, error)
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

// Auth returns a Gin middleware that validates Bearer tokens using the
// configured TokenValidator. Validated claims are stored in the Gin context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		token, adErr := bearerToken(c.Request)
		if adErr != nil {
			c.AbortWithStatusJSON(adErr.HTTPStatus, adErr.ToResponse())
			return
		}

		claims, err := cfg.TokenValidator(token)
		if err != nil {
			invalid := errors.InvalidToken()
			c.AbortWithStatusJSON(invalid.HTTPStatus, invalid.ToResponse())
			return
		}

		for key, value := range claims {
			c.Set(key, value)
		}
		c.Next()
	}
}

// RequireBearer guards an http.Handler mounted directly on the ServeMux
// with the same bearer-token check the Gin Auth middleware applies.
func RequireBearer(validator func(string) (map[string]interface{}, error), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, adErr := bearerToken(r)
		if adErr != nil {
			writeError(w, adErr)
			return
		}
		if _, err := validator(token); err != nil {
			writeError(w, errors.InvalidToken())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HMACValidator returns a token validator that verifies HS256 signatures
// with the given secret and returns the token claims.
func HMACValidator(secret string) func(string) (map[string]interface{}, error) {
	key := []byte(secret)
	return func(tokenString string) (map[string]interface{}, error) {
		token, err := gojwt.Parse(tokenString, func(t *gojwt.Token) (interface{}, error) {
			if t.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}
			return key, nil
		}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		claims, ok := token.Claims.(gojwt.MapClaims)
		if !ok || !token.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}
		return claims, nil
	}
}

// bearerToken extracts the Bearer token from the Authorization header.
func bearerToken(r *http.Request) (string, *errors.AdError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Unauthorized("Authorization header required.")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.Unauthorized("Invalid authorization header format.")
	}
	return parts[1], nil
}

// writeError renders an AdError on a plain http.ResponseWriter.
func writeError(w http.ResponseWriter, adErr *errors.AdError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(adErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(adErr.ToResponse())
}
