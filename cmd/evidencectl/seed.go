package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

const defaultSeedPassword = "password123"

type seedAccount struct {
	Name  string
	Email string
	Role  models.Role
}

var seedAccounts = []seedAccount{
	{Name: "Admin User", Email: "admin@secureevidence.com", Role: models.RoleAdmin},
	{Name: "Investigator User", Email: "investigator@secureevidence.com", Role: models.RoleInvestigator},
	{Name: "Analyst User", Email: "analyst@secureevidence.com", Role: models.RoleAnalyst},
}

// Seed inserts every seed account whose e-mail is not taken yet and reports which ones it
// created. Existing accounts are left untouched, so running it twice is safe.
func Seed(ctx context.Context, users databases.UserDatabase, password string) (map[string]bool, error) {
	if password == "" {
		return nil, fmt.Errorf("seed password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created := make(map[string]bool, len(seedAccounts))
	for _, acct := range seedAccounts {
		n, err := users.CountDocuments(ctx, bson.M{"email": acct.Email})
		if err != nil {
			return created, fmt.Errorf("failed to check %s: %w", acct.Email, err)
		}
		if n > 0 {
			continue
		}
		u := &models.User{
			Name:      acct.Name,
			Email:     acct.Email,
			Password:  string(hash),
			Role:      acct.Role,
			CreatedAt: time.Now(),
		}
		if err := users.InsertOne(ctx, u); err != nil {
			return created, fmt.Errorf("failed to create %s: %w", acct.Email, err)
		}
		zap.S().Infow("seeded user", "email", acct.Email, "role", acct.Role)
		created[acct.Email] = true
	}
	return created, nil
}
