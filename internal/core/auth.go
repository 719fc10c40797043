package core

import (
	"errors"
	"strings"
)

type (
	User struct {
		ID       int64   `json:"id"`
		Username string  `json:"username"`
		Email    string  `json:"email"`
		FullName *string `json:"full_name"`
	}

	Credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	Registration struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name,omitempty"`
	}

	AuthResult struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        User   `json:"user"`
	}
)

var (
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyPassword = errors.New("empty password")
	ErrEmptyEmail    = errors.New("empty email")
)

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (r Registration) Validate() error {
	if err := (Credentials{Username: r.Username, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}
