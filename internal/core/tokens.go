package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotImplemented is returned by the token operations.
var ErrNotImplemented = errors.New("not implemented")

// Token is an API token record. Tokens are not stored by this database.
type Token struct {
	User     string    `json:"user"`
	Key      string    `json:"key"`
	Token    string    `json:"token"`
	ReadOnly bool      `json:"readonly"`
	CIDR     []string  `json:"cidr,omitempty"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated,omitempty"`
}

// TokenFilter selects tokens by owner.
type TokenFilter struct {
	User string
}

func (d *LocalDatabase) SaveToken(ctx context.Context, token Token) error {
	return ErrNotImplemented
}

func (d *LocalDatabase) DeleteToken(ctx context.Context, user, tokenKey string) error {
	return ErrNotImplemented
}

func (d *LocalDatabase) ReadTokens(ctx context.Context, filter TokenFilter) ([]Token, error) {
	return nil, ErrNotImplemented
}
