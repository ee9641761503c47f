package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/metadata"
)

// Bootstrap migrates every entity and seeds the admin account when the
// users table is empty.
func (s *Store) Bootstrap(ctx context.Context, entities []*metadata.Entity, email, password string, logger logrus.FieldLogger) error {
	if err := NewMigrator(s).MigrateAll(ctx, entities); err != nil {
		return fmt.Errorf("bootstrap tables: %w", err)
	}
	if err := s.seedAdminUser(ctx, email, password, logger); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context, email, password string, logger logrus.FieldLogger) error {
	count, err := Count(ctx, s.DB, "SELECT COUNT(*) FROM users")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	pb := s.Dialect.NewParamBuilder()
	sql := fmt.Sprintf(
		"INSERT INTO users (id, name, email, password, role, active, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s, %s, %s)",
		pb.Add(uuid.NewString()), pb.Add("Administrator"), pb.Add(email), pb.Add(string(hashBytes)),
		pb.Add("admin"), pb.Add(true), pb.Add(now), pb.Add(now),
	)
	if _, err := s.DB.ExecContext(ctx, sql, pb.Params()...); err != nil {
		return err
	}

	logger.WithField("email", email).Warn("Default admin user created, change the password immediately")
	return nil
}
