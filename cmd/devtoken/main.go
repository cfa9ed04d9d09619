// Command devtoken prints a bearer token for a user id, signed with the
// configured secret. It is meant for local testing against the API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/r3-fresh/tickets-management-sub000/internal/auth"
	"github.com/r3-fresh/tickets-management-sub000/internal/config"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	flags := pflag.NewFlagSet("devtoken", pflag.ExitOnError)
	userID := flags.Int64P("user", "u", 0, "user id the token is issued for (required)")
	role := flags.StringP("role", "r", string(domain.RoleUser), "role hint stored in the token: user, agent or admin")
	area := flags.Int64P("area", "a", 0, "attention area hint for agents")
	secret := flags.String("secret", cfg.Auth.JWTSecret, "signing secret (defaults to AUTH_JWT_SECRET)")
	ttl := flags.Int("ttl", cfg.Auth.AccessTokenTTLMinutes, "token lifetime in minutes")
	_ = flags.Parse(os.Args[1:])

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "--user is required")
		flags.Usage()
		os.Exit(2)
	}
	parsedRole, err := domain.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	user := domain.User{ID: *userID, Role: parsedRole}
	if *area > 0 {
		user.AttentionAreaID = area
	}
	token, expires, err := auth.NewTokenManager(*secret, *ttl).GenerateToken(user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format("2006-01-02 15:04:05 MST"))
}
