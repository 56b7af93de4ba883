package migrations

import (
	"context"
	"time"

	"git.collab.network/collab/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddNotifications{})
}

type AddNotifications struct{}

func (m AddNotifications) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 9, 10, 17, 12, 4, 0, time.UTC))
}

func (m AddNotifications) Name() string {
	return "AddNotifications"
}

func (m AddNotifications) Description() string {
	return "Add notification table, one row per mentioned user per entity"
}

func (m AddNotifications) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TYPE notification_state AS ENUM ('pending', 'sent', 'failed');

		CREATE TABLE notification (
			id SERIAL PRIMARY KEY,
			entity_kind content_kind NOT NULL,
			entity_id INT NOT NULL,
			user_id INT NOT NULL REFERENCES collab_user (id) ON DELETE CASCADE,
			mention_id INT REFERENCES user_mention (id) ON DELETE SET NULL,
			state notification_state NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			sent_at TIMESTAMP WITH TIME ZONE
		);
		CREATE UNIQUE INDEX notification_dedupe ON notification (entity_kind, entity_id, user_id);
		CREATE INDEX notification_pending ON notification (entity_kind, entity_id) WHERE state = 'pending';
		`,
	)
	return err
}

func (m AddNotifications) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE notification;
		DROP TYPE notification_state;
		`,
	)
	return err
}
