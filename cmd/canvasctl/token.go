package main

import (
	"fmt"
	"os"
	"time"

	"collabcanvas/internal/auth"
	"collabcanvas/internal/session"

	"github.com/spf13/pflag"
)

func runToken(args []string) error {
	var user, secret, out string
	var ttl time.Duration

	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	fs.StringVar(&user, "user", "", "user id carried in the userId claim")
	fs.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 secret (default $JWT_SECRET)")
	fs.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	fs.StringVar(&out, "out", "", "write the token to this file instead of stdout")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	if user == "" {
		return fmt.Errorf("--user is required")
	}
	if secret == "" {
		return fmt.Errorf("--secret or JWT_SECRET is required")
	}

	token, err := auth.Sign(secret, user, ttl)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Println(token)
		return nil
	}
	return os.WriteFile(out, []byte(token+"\n"), 0o600)
}

func tokenSource(c *connectionFlags) session.TokenSource {
	if c.tokenFile != "" {
		return session.FileToken(c.tokenFile)
	}
	return session.StaticToken(c.token)
}
