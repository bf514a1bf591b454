package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/relation-engine/internal/service"
	"github.com/d60-Lab/relation-engine/pkg/response"
)

// AccountIDKey is the gin context key holding the authenticated account id.
const AccountIDKey = "account_id"

// IdentityResolver maps a token subject to an account id.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, principal string) (string, error)
}

// Auth 校验 HS256 Bearer token，sub 解析为账号后写入上下文。
// 本服务不签发 token。
func Auth(secret, issuer string, resolver IdentityResolver) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}); err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		if claims.Subject == "" {
			response.Unauthorized(c, "token has no subject")
			return
		}

		accountID, err := resolver.ResolveIdentity(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				response.Unauthorized(c, "unknown account")
				return
			}
			response.InternalError(c, err)
			c.Abort()
			return
		}
		c.Set(AccountIDKey, accountID)
		c.Next()
	}
}

// AccountID returns the id set by Auth, or "" outside an authenticated route.
func AccountID(c *gin.Context) string {
	return c.GetString(AccountIDKey)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
