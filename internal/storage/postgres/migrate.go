package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded migration that is not recorded in
// schema_migrations yet, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.sess.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     TEXT PRIMARY KEY,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	if _, err := s.sess.Select("version").From("schema_migrations").LoadContext(ctx, &applied); err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		if done[version] {
			continue
		}

		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		if err := s.applyMigration(ctx, version, string(body)); err != nil {
			return err
		}

		s.logger.Info("migration applied", zap.String("version", version))
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, version, body string) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.RollbackUnlessCommitted()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		s.logger.Error("migration failed", zap.String("version", version), zap.Error(err))
		return fmt.Errorf("apply migration %s: %w", version, err)
	}

	if _, err := tx.InsertInto("schema_migrations").Columns("version").Values(version).ExecContext(ctx); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
