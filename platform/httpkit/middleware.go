// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	ContextUserIDKey   = "userID"
	ContextRolesKey    = "roles"
	ContextTenantIDKey = "tenantID"
	ContextMemberIDKey = "memberID"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.HTTPRequest(c.Request.Method, path, c.Writer.Status(), float64(time.Since(start).Milliseconds()), c.ClientIP())
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), camera=()")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// KeyedRateLimiter keeps one token bucket per key (client IP, user id, ...).
type KeyedRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	keyFn    func(c *gin.Context) string
	log      *logger.Logger
}

// NewIPRateLimiter limits requests per client IP.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *KeyedRateLimiter {
	return NewKeyedRateLimiter(r, burst, func(c *gin.Context) string { return c.ClientIP() }, log)
}

// NewUserRateLimiter limits requests per authenticated user and falls back to
// the client IP for anonymous callers.
func NewUserRateLimiter(r rate.Limit, burst int, log *logger.Logger) *KeyedRateLimiter {
	return NewKeyedRateLimiter(r, burst, func(c *gin.Context) string {
		if id := GetIdentity(c); id.IsAuthenticated() {
			return "user:" + id.UserID().String()
		}
		return "ip:" + c.ClientIP()
	}, log)
}

func NewKeyedRateLimiter(r rate.Limit, burst int, keyFn func(c *gin.Context) string, log *logger.Logger) *KeyedRateLimiter {
	return &KeyedRateLimiter{rate: r, burst: burst, keyFn: keyFn, log: log}
}

func (k *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	if existing, ok := k.limiters.Load(key); ok {
		return existing.(*rate.Limiter)
	}
	actual, _ := k.limiters.LoadOrStore(key, rate.NewLimiter(k.rate, k.burst))
	return actual.(*rate.Limiter)
}

// Allow reports whether a request for key may proceed now.
func (k *KeyedRateLimiter) Allow(key string) bool {
	return k.limiter(key).Allow()
}

// RateLimit returns the limiting middleware.
func (k *KeyedRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !k.Allow(k.keyFn(c)) {
			if k.log != nil {
				k.log.RateLimitExceeded(c.ClientIP(), c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// AuthRateLimiter is the stricter limiter for authentication endpoints.
type AuthRateLimiter struct {
	*KeyedRateLimiter
}

// NewAuthRateLimiter allows 5 requests per minute per IP.
func NewAuthRateLimiter(log *logger.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{KeyedRateLimiter: NewIPRateLimiter(rate.Limit(5.0/60.0), 5, log)}
}

// AuthRequired validates JWT access tokens from the Authorization header, or
// from the token query param for EventSource and WebSocket clients.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			rawToken = c.Query("token")
			if rawToken == "" {
				abortUnauthorized(c, errMissingToken)
				return
			}
		}

		claims, err := ParseAccessClaims(rawToken, cfg.GetJWTAccessSecret())
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRolesKey, claims.Roles)
		if claims.TenantID != nil {
			c.Set(ContextTenantIDKey, *claims.TenantID)
		}
		if claims.MemberID != nil {
			c.Set(ContextMemberIDKey, *claims.MemberID)
		}
		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(ContextRolesKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		held, _ := raw.([]string)
		for _, role := range roles {
			if slices.Contains(held, role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// AccessClaims is the parsed form of an access token.
type AccessClaims struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	MemberID *uuid.UUID
	Roles    []string
}

// ParseAccessClaims verifies an HS256 access token and extracts its claims.
func ParseAccessClaims(rawToken, secret string) (AccessClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, errors.New(errInvalidToken)
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	out := AccessClaims{UserID: userID, Roles: extractRoles(claims["roles"])}
	if out.TenantID, err = optionalUUIDClaim(claims, "tenant_id"); err != nil {
		return AccessClaims{}, errors.New(errInvalidToken)
	}
	if out.MemberID, err = optionalUUIDClaim(claims, "member_id"); err != nil {
		return AccessClaims{}, errors.New(errInvalidToken)
	}
	return out, nil
}

func extractRoles(value interface{}) []string {
	roles := make([]string, 0)
	switch typed := value.(type) {
	case []string:
		return append(roles, typed...)
	case []interface{}:
		for _, item := range typed {
			if text, ok := item.(string); ok {
				roles = append(roles, text)
			}
		}
	}
	return roles
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return rawToken, rawToken != ""
}

func optionalUUIDClaim(claims jwt.MapClaims, key string) (*uuid.UUID, error) {
	value, ok := claims[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
