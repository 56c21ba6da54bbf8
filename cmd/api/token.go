package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/auth"
)

// TokenCmd prints a signed access token for operators and scripts.
type TokenCmd struct {
	Subject string        `required:"" help:"User id placed in the sub claim"`
	Role    string        `default:"user" enum:"user,admin" help:"Role claim (user or admin)"`
	TTL     time.Duration `name:"ttl" help:"Token lifetime; defaults to JWT_EXPIRY"`

	out io.Writer `kong:"-"`
}

func (t *TokenCmd) Run(g *Global) error {
	if !g.Config.AuthEnabled() {
		return errors.New("JWT_SECRET is required to issue tokens")
	}
	m, err := auth.NewManager(g.Config.JWTSecret, g.Config.JWTExpiry)
	if err != nil {
		return err
	}
	tok, err := m.Issue(t.Subject, t.Role, t.TTL)
	if err != nil {
		return err
	}

	out := t.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(tok)
}
