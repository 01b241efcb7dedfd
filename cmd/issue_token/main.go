package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"payments_backend/internal/logger"
	"payments_backend/internal/service"

	"github.com/joho/godotenv"
)

// issue_token prints a bearer token for a server running with AUTH_REQUIRED=true.
func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "merchant-dashboard", "token subject")
	ttl := flag.Duration("ttl", service.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	token, err := service.NewJWT(secret, *ttl).Generate(*subject)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}

	logger.Info("token issued", "sub", *subject, "expires_at", time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
