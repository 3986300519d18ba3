// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
//
// When JWT_PRIVATE_KEY is set, the seed also prints a ready-to-use bearer
// token and the dev device key, so curl against /v1 works immediately.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"purityscan/backend/internal/config"
	"purityscan/backend/internal/db"
	devicedomain "purityscan/backend/internal/device/domain"
	devicerepo "purityscan/backend/internal/device/repository"
	orgdomain "purityscan/backend/internal/organization/domain"
	orgrepo "purityscan/backend/internal/organization/repository"
	"purityscan/backend/internal/security"
	userdomain "purityscan/backend/internal/user/domain"
	userrepo "purityscan/backend/internal/user/repository"
)

const (
	devOrgID        = "dev-org-001"
	devUserID       = "dev-user-001"
	devUserEmail    = "dev@example.com"
	devDeviceID     = "dev-device-001"
	devDeviceSecret = "dev-device-secret"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(pool)
	orgs := orgrepo.NewPostgresRepository(pool)
	devices := devicerepo.NewPostgresRepository(pool)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed: lookup dev user: %v", err)
	}
	if existing == nil {
		now := time.Now().UTC()
		org := &orgdomain.Organization{
			ID:        devOrgID,
			Name:      "Dev Lab",
			Status:    orgdomain.OrgStatusActive,
			CreatedAt: now,
		}
		if err := orgs.Create(ctx, org); err != nil {
			log.Fatalf("seed: create org: %v", err)
		}
		user := &userdomain.User{
			ID:        devUserID,
			Email:     devUserEmail,
			Name:      "Dev User",
			OrgID:     devOrgID,
			Role:      userdomain.RoleOwner,
			Status:    userdomain.UserStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("seed: create user: %v", err)
		}
		hasher := security.NewHasher(cfg.BcryptCost)
		keyHash, err := hasher.Hash([]byte(devDeviceSecret))
		if err != nil {
			log.Fatalf("seed: hash device key: %v", err)
		}
		device := &devicedomain.Device{
			ID:         devDeviceID,
			OrgID:      devOrgID,
			Name:       "bench-spectrometer-1",
			APIKeyHash: keyHash,
			CreatedAt:  now,
		}
		if err := devices.Create(ctx, device); err != nil {
			log.Fatalf("seed: create device: %v", err)
		}
		log.Printf("seeded org %s, user %s, device %s", devOrgID, devUserEmail, devDeviceID)
	} else {
		log.Printf("dev user %s already exists, skipping inserts", devUserEmail)
	}

	fmt.Printf("X-Device-Key: %s.%s\n", devDeviceID, devDeviceSecret)

	if cfg.JWTPrivateKey == "" {
		log.Print("JWT_PRIVATE_KEY not set, skipping dev token")
		return
	}
	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("seed: private key: %v", err)
	}
	var publicKey any
	if cfg.JWTPublicKey != "" {
		publicKey, err = security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			log.Fatalf("seed: public key: %v", err)
		}
	} else {
		publicKey = privateKey.Public()
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	token, _, expiresAt, err := tokens.IssueAccess(devUserID, devOrgID)
	if err != nil {
		log.Fatalf("seed: issue token: %v", err)
	}
	fmt.Printf("Authorization: Bearer %s\n", token)
	log.Printf("token expires at %s", expiresAt.Format(time.RFC3339))
}
