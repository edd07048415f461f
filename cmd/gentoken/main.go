// gentoken mints a signed identity token for dev and test use. In production
// tokens come from the identity provider; this utility stands in for it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/avolkov/stallpoints/internal/models"
	"github.com/avolkov/stallpoints/internal/service/identity"
)

func main() {
	var (
		secretKey string
		subject   string
		email     string
		role      string
		ttl       time.Duration
	)

	fs := pflag.NewFlagSet("gentoken", pflag.ContinueOnError)
	fs.StringVarP(&secretKey, "secret-key", "s", "", "Secret key to sign the token with (required)")
	fs.StringVarP(&subject, "subject", "u", "", "Stable subject, becomes the account id (required)")
	fs.StringVarP(&email, "email", "m", "", "Email, the onboarding signal (required)")
	fs.StringVarP(&role, "role", "r", "", "Claimed role: customer or merchant (optional)")
	fs.DurationVarP(&ttl, "ttl", "t", 24*time.Hour, "Token lifetime")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if secretKey == "" || subject == "" || email == "" {
		fmt.Fprintln(os.Stderr, "secret-key, subject and email are required")
		fs.PrintDefaults()
		os.Exit(2)
	}

	verifier, err := identity.New(identity.Config{SecretKey: secretKey, TokenTTL: ttl})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while creating token issuer: %v\n", err)
		os.Exit(1)
	}

	token, err := verifier.Issue(models.Identity{
		Subject:     subject,
		Email:       email,
		ClaimedRole: role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while issuing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
