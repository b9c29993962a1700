package apisvc

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/tododesk/core/user"
)

type userEnvelope struct {
	User user.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds user.Credentials) (user.User, error) {
	var env userEnvelope
	if err := c.send(ctx, rest.Post, "/api/auth/login", nil, creds, &env); err != nil {
		return user.User{}, err
	}
	return env.User, nil
}

// Register creates a new user. The remote API only lets admins do this.
func (c *Client) Register(ctx context.Context, reg user.Registration) (user.User, error) {
	var usr user.User
	if err := c.send(ctx, rest.Post, "/api/auth/register", nil, reg, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, rest.Post, "/api/auth/logout", nil, nil, nil)
}

// Verify returns the user the current credentials belong to.
func (c *Client) Verify(ctx context.Context) (user.User, error) {
	var env userEnvelope
	if err := c.send(ctx, rest.Get, "/api/auth/verify", nil, nil, &env); err != nil {
		return user.User{}, err
	}
	return env.User, nil
}
