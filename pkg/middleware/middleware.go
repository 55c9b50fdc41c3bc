package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/state"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

func ClaimIp() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(state.CurrentUserIP, c.ClientIP())
		c.Next()
	}
}

// RequestID propagates X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(state.RequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ip := c.GetString(state.CurrentUserIP)
		if ip == "" {
			ip = c.ClientIP()
		}
		ev.Str("request_id", c.GetString(state.RequestID)).
			Str("ip", ip).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

var errTokenExpired = errors.New(constant.TOKEN_EXPIRED)

func CheckAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": constant.UNAUTHORIZED_ACCESS})
			c.Abort()
			return
		}

		authToken := strings.Split(authHeader, " ")
		if len(authToken) != 2 || authToken[0] != "Bearer" {
			c.JSON(400, gin.H{"error": "Invalid/Malformed auth token"})
			c.Abort()
			return
		}

		userID, err := parseToken(secret, authToken[1])
		if err != nil {
			c.JSON(401, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(state.CurrentUserId, userID)
		c.Next()
	}
}

func parseToken(secret, raw string) (uint, error) {
	// an empty key would verify tokens anyone can sign
	if secret == "" {
		return 0, errors.New(constant.INVALID_TOKEN)
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(constant.INVALID_TOKEN)
		}
		return []byte(secret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return 0, errTokenExpired
		}
		return 0, errors.New(constant.INVALID_TOKEN)
	}
	if !token.Valid {
		return 0, errors.New(constant.INVALID_TOKEN)
	}

	if exp, ok := claims["exp"].(float64); !ok || float64(time.Now().Unix()) > exp {
		return 0, errTokenExpired
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New(constant.INVALID_TOKEN)
	}
	return uint(id), nil
}
