// Command dev-token mints a signed bearer token for exercising the API
// locally, where no platform authentication headers are injected. The
// server only accepts these tokens when the same secret is configured via
// STICKYASKS_AUTH_DEV_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", "", "dev JWT secret, min 32 characters")
	email := flag.String("email", "dev@example.com", "email claim")
	name := flag.String("name", "Dev User", "display name claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if len(*secret) < 32 {
		fmt.Fprintln(os.Stderr, "error: -secret must be at least 32 characters")
		os.Exit(1)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": *email,
		"name":  *name,
		"iat":   now.Unix(),
		"exp":   now.Add(*ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
