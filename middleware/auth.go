package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"learningsite/logger"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIsStaff  = "is_staff"

	// AuthCookie carries the identity provider's token for browser clients.
	AuthCookie = "auth_token"
)

// Claims are the fields this service reads from identity provider tokens.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for claims. Used by tests and local tooling.
func SignToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

// IdentitySync records the account behind a verified token locally.
type IdentitySync interface {
	SyncUser(ctx context.Context, id uint, username string, isStaff bool) error
}

// Authenticate reads an optional token and exposes its claims on the
// context. Requests without a valid token pass through anonymously.
func Authenticate(jwtSecret string, sync IdentitySync, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "Authenticate")
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			claims, err := parseToken(jwtSecret, tokenString)
			if err != nil {
				log.Debug("token rejected", "error", err)
			} else {
				if sync != nil {
					if err := sync.SyncUser(c.Request.Context(), claims.UserID, claims.Username, claims.IsStaff); err != nil {
						log.Warn("sync user", "user_id", claims.UserID, "error", err)
					}
				}
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextUsername, claims.Username)
				c.Set(ContextIsStaff, claims.IsStaff)
			}
		}
		c.Next()
	}
}

// RequireLogin sends anonymous requests to the login flow, remembering
// where they were headed.
func RequireLogin(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			redirectToLogin(c, loginURL)
			return
		}
		c.Next()
	}
}

// RequireStaff is RequireLogin for back-office routes.
func RequireStaff(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok || !c.GetBool(ContextIsStaff) {
			redirectToLogin(c, loginURL)
			return
		}
		c.Next()
	}
}

func redirectToLogin(c *gin.Context, loginURL string) {
	target := loginURL + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
