package client

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

// Login exchanges credentials for a session. A 401 here is a credential
// failure for the caller to report, never a session eviction.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	req := transport.LoginRequest{Email: creds.Email, Password: creds.Password}
	return c.authenticate(ctx, pathLogin, req)
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	req := transport.RegisterRequest{Name: reg.Name, Email: reg.Email, Password: reg.Password}
	return c.authenticate(ctx, pathRegister, req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*domain.AuthResult, error) {
	var resp transport.AuthResponse
	if err := c.do(ctx, fasthttp.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, domain.NewError(domain.ErrCodeInternal, "server returned no token")
	}
	return &domain.AuthResult{User: resp.User, Token: resp.Token}, nil
}
