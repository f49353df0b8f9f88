package httpx

import (
	"context"
	"errors"
	"net/http"
)

const invalidCredentials = "Invalid credentials"

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

// Login exchanges operator credentials for a bearer token. Failures come
// back as *LoginError whose Message is the store's details verbatim, or
// "Invalid credentials" when it sent none.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResp
	err := c.sendJSON(ctx, http.MethodPost, "/api/login", "", loginReq{Username: username, Password: password}, &out)
	if err != nil {
		msg := Details(err)
		if msg == "" {
			msg = invalidCredentials
		}
		return "", &LoginError{Message: msg, Err: err}
	}
	if out.Token == "" {
		return "", &LoginError{Message: invalidCredentials, Err: errors.New("login response carried no token")}
	}
	return out.Token, nil
}
