package migrations

import (
	"context"
	"time"

	"git.collab.network/collab/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(InitialSchema{})
}

type InitialSchema struct{}

func (m InitialSchema) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
}

func (m InitialSchema) Name() string {
	return "InitialSchema"
}

func (m InitialSchema) Description() string {
	return "Create users, projects, posts, and comments"
}

func (m InitialSchema) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE collab_user (
			id SERIAL PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			email VARCHAR(254) NOT NULL DEFAULT '',
			name VARCHAR(255) NOT NULL DEFAULT '',
			is_staff BOOLEAN NOT NULL DEFAULT FALSE,
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX collab_user_username ON collab_user (LOWER(username));

		CREATE TABLE project (
			id SERIAL PRIMARY KEY,
			slug VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			blurb TEXT NOT NULL DEFAULT '',
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX project_slug ON project (slug);

		CREATE TYPE content_state AS ENUM ('draft', 'published', 'edited');

		CREATE TABLE post (
			id SERIAL PRIMARY KEY,
			project_id INT NOT NULL REFERENCES project (id) ON DELETE CASCADE,
			user_id INT NOT NULL REFERENCES collab_user (id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL DEFAULT '',
			number INT,
			markdown_preview TEXT,
			body_preview TEXT,
			markdown TEXT,
			body TEXT,
			state content_state NOT NULL DEFAULT 'draft',
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX post_project_number ON post (project_id, number);
		CREATE INDEX post_project_state ON post (project_id, state);

		CREATE TABLE comment (
			id SERIAL PRIMARY KEY,
			post_id INT NOT NULL REFERENCES post (id) ON DELETE CASCADE,
			user_id INT NOT NULL REFERENCES collab_user (id) ON DELETE CASCADE,
			markdown_preview TEXT,
			body_preview TEXT,
			markdown TEXT,
			body TEXT,
			state content_state NOT NULL DEFAULT 'draft',
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE INDEX comment_post ON comment (post_id);
		`,
	)
	return err
}

func (m InitialSchema) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE comment;
		DROP TABLE post;
		DROP TYPE content_state;
		DROP TABLE project;
		DROP TABLE collab_user;
		`,
	)
	return err
}
