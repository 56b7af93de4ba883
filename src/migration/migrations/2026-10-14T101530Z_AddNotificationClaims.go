package migrations

import (
	"context"
	"time"

	"git.collab.network/collab/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddNotificationClaims{})
}

type AddNotificationClaims struct{}

func (m AddNotificationClaims) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 10, 14, 10, 15, 30, 0, time.UTC))
}

func (m AddNotificationClaims) Name() string {
	return "AddNotificationClaims"
}

func (m AddNotificationClaims) Description() string {
	return "Let workers claim pending notifications before delivering them"
}

func (m AddNotificationClaims) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		ALTER TABLE notification
			ADD COLUMN claimed_until TIMESTAMP WITH TIME ZONE;
		`,
	)
	return err
}

func (m AddNotificationClaims) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		ALTER TABLE notification
			DROP COLUMN claimed_until;
		`,
	)
	return err
}
