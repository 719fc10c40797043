package rest

import (
	"context"
	"net/http"

	"finboard/internal/core"
)

func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.AuthResult, error) {
	var out core.AuthResult
	err := c.doJSON(ctx, http.MethodPost, "auth/login", nil, creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, r core.Registration) (core.AuthResult, error) {
	var out core.AuthResult
	err := c.doJSON(ctx, http.MethodPost, "auth/register", nil, r, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (core.User, error) {
	var out core.User
	err := c.getJSON(ctx, "auth/me", nil, &out)
	return out, err
}
