package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/princinho/natours/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SeedAdminUser inserts an admin account unless one with that email exists.
// Nothing is done when email or password is empty.
func SeedAdminUser(ctx context.Context, usersCol *mongo.Collection, hasher PasswordHasher, email, pass string, logger *slog.Logger) error {
	email = NormalizeEmail(email)
	if email == "" || pass == "" {
		logger.Info("admin seeding skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := hasher.Hash(pass)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()

	// Only insert if it doesn't exist
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":         "Admin",
			"email":        email,
			"passwordHash": hash,
			"role":         models.RoleAdmin,
			"active":       true,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	opts := options.UpdateOne().SetUpsert(true)

	res, err := usersCol.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("seed admin upsert failed: %w", err)
	}

	if res.UpsertedCount == 1 {
		logger.Info("admin user seeded", "email", email)
	} else {
		logger.Info("admin user already exists", "email", email)
	}

	return nil
}
