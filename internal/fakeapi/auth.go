package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

type authHandler struct {
	baseHandler
	store  *Store
	tokens *tokenIssuer
}

func (h *authHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}
	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.issue(ctx, http.StatusOK, user)
}

func (h *authHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}
	user, err := h.store.Register(req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.issue(ctx, http.StatusCreated, user)
}

func (h *authHandler) issue(ctx *fasthttp.RequestCtx, status int, user *domain.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "could not issue token", err))
		return
	}
	h.respondJSON(ctx, status, transport.AuthResponse{User: *user, Token: token})
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokenIssuer) Issue(userID int64) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the user id carried by a valid token.
func (t *tokenIssuer) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}
