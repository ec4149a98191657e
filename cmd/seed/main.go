// seed inserts development identities for the local identity provider and prints an access token for each.
// Idempotent: existing identities (matched by email) are kept and only get a fresh token.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"linkerai/backend/internal/config"
	"linkerai/backend/internal/db"
	"linkerai/backend/internal/identity/domain"
	identityrepo "linkerai/backend/internal/identity/repository"
	"linkerai/backend/internal/logger"
	"linkerai/backend/internal/security"
)

// devIdentities cover the onboarding paths: no role yet, a client role in metadata, and an admin.
var devIdentities = []domain.Identity{
	{ID: "dev-identity-001", Email: "newcomer@example.com", FirstName: "New", LastName: "Comer"},
	{ID: "dev-identity-002", Email: "client@example.com", FirstName: "Casey", LastName: "Client", Metadata: domain.Metadata{Role: "client"}},
	{ID: "dev-identity-003", Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", Metadata: domain.Metadata{Role: "admin"}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.LogLevel, true)
	defer func() { _ = log.Sync() }()

	if !cfg.IsDevelopment() {
		log.Fatal("seed only runs with APP_ENV=development")
	}
	if cfg.IdentityProvider != config.IdentityProviderLocal {
		log.Fatal("seed needs IDENTITY_PROVIDER=local", zap.String("provider", cfg.IdentityProvider))
	}

	tokens, err := security.LoadTokenProvider(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		log.Fatal("token provider", zap.Error(err))
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	repo := identityrepo.NewPostgresRepository(conn)
	now := time.Now().UTC()
	for _, seed := range devIdentities {
		existing, err := repo.GetByEmail(ctx, seed.Email)
		if err != nil {
			log.Fatal("lookup identity", zap.String("email", seed.Email), zap.Error(err))
		}
		id := seed.ID
		if existing != nil {
			id = existing.ID
			log.Info("identity exists, skipping insert", zap.String("email", seed.Email))
		} else {
			ident := seed
			ident.CreatedAt = now
			if err := repo.Create(ctx, &ident); err != nil {
				log.Fatal("create identity", zap.String("email", seed.Email), zap.Error(err))
			}
			log.Info("identity created", zap.String("email", seed.Email), zap.String("identity_id", id))
		}

		token, expiresAt, err := tokens.IssueAccess(id, "seed")
		if err != nil {
			log.Fatal("issue token", zap.Error(err))
		}
		fmt.Printf("%s (%s)\n  expires %s\n  Authorization: Bearer %s\n", seed.Email, id, expiresAt.Format(time.RFC3339), token)
	}
	log.Info("seed completed")
}
