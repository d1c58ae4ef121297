// cmd/token/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/utils"
)

// Mints a bearer token for an identity using the server's JWT settings.
func main() {
	identity := flag.String("identity", "", "identity the token authenticates")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_ACCESS_TTL)")
	flag.Parse()

	log := logrus.New()

	if !utils.ValidateIdentity(*identity) {
		log.WithField("identity", *identity).Fatal("A valid -identity is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.JWT.AccessTokenTTL) * time.Hour
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	token, err := utils.GenerateJWT(*identity, cfg.JWT.Issuer, lifetime)
	if err != nil {
		log.WithError(err).Fatal("Failed to generate token")
	}

	fmt.Fprintln(os.Stdout, token)
}
