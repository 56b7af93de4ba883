package migrations

import (
	"context"
	"time"

	"git.collab.network/collab/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddMentions{})
}

type AddMentions struct{}

func (m AddMentions) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 9, 3, 9, 30, 15, 0, time.UTC))
}

func (m AddMentions) Name() string {
	return "AddMentions"
}

func (m AddMentions) Description() string {
	return "Add mention table for posts and comments"
}

func (m AddMentions) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TYPE content_kind AS ENUM ('post', 'comment');

		CREATE TABLE user_mention (
			id SERIAL PRIMARY KEY,
			entity_kind content_kind NOT NULL,
			entity_id INT NOT NULL,
			user_id INT NOT NULL REFERENCES collab_user (id) ON DELETE CASCADE,
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE INDEX user_mention_entity ON user_mention (entity_kind, entity_id);
		CREATE UNIQUE INDEX user_mention_entity_user ON user_mention (entity_kind, entity_id, user_id);
		`,
	)
	return err
}

func (m AddMentions) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE user_mention;
		DROP TYPE content_kind;
		`,
	)
	return err
}
