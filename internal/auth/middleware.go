package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Middleware verifies the bearer token when one is present and injects an AuthContext
// into the request context. Requests without a valid token continue unauthenticated.
func Middleware(authService *AuthService, tokenExtractor *TokenExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, authService, tokenExtractor)
		c.Next()
	}
}

// RequireAuth is Middleware that aborts with 401 when no valid token was presented.
func RequireAuth(authService *AuthService, tokenExtractor *TokenExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAuthContext(c.Request.Context()) == nil {
			authenticate(c, authService, tokenExtractor)
		}
		if GetAuthContext(c.Request.Context()) == nil {
			slog.Warn("authentication required but not provided",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "UNAUTHORIZED",
				"message": "authentication required",
			})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService *AuthService, tokenExtractor *TokenExtractor) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		slog.Debug("no authorization header provided")
		return
	}

	userID, err := tokenExtractor.ExtractUserIDFromHeader(authHeader)
	if err != nil {
		slog.Warn("failed to extract user ID from token",
			"error", err,
			"auth_header_length", len(authHeader),
		)
		return
	}

	ctx := c.Request.Context()
	profile, err := authService.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.WarnContext(ctx, "failed to get profile from database",
				"user_id", userID,
				"error", err,
			)
			return
		}
		// No profile row yet; the token alone identifies the user.
		profile = &Profile{ID: userID}
	}

	c.Request = c.Request.WithContext(WithAuthContext(ctx, &AuthContext{
		UserID:  userID,
		Profile: profile,
	}))
	slog.Debug("auth context injected successfully", "user_id", userID)
}
