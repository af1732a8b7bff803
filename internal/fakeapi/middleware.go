package fakeapi

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/api/transport"
)

const userIDKey = "user_id"

// jwtAuth rejects requests without a valid, unrevoked bearer token and
// stores the caller's id under userIDKey.
func jwtAuth(s *Server) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" || s.isRevoked(tokenString) {
				reject(ctx)
				return
			}

			userID, err := s.tokens.Verify(tokenString)
			if err != nil || !s.store.UserExists(userID) {
				s.logger.Debug("invalid jwt token", zap.Error(err))
				reject(ctx)
				return
			}

			ctx.SetUserValue(userIDKey, userID)
			next(ctx)
		}
	}
}

func reject(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	body := transport.ErrorResponse{Message: "Invalid or expired token"}
	ctx.SetBodyString(body.String())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
