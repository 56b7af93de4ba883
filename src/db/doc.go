/*
This package contains lowish-level APIs for making database queries to our Postgres database. It streamlines the process of mapping query results to Go types, while allowing you to write arbitrary SQL queries.

The primary functions are Query and QueryIterator.

Query syntax

Arguments can be provided using placeholders like $1, $2, etc. All arguments will be safely escaped and mapped from their Go type to the correct Postgres type. (This is a direct proxy to pgx.)

	postIDs, err := db.QueryScalar[int](ctx, conn,
		`
		SELECT id
		FROM post
		WHERE
			project_id = $1
			AND state = ANY($2)
		`,
		projectID,
		[]models.ContentState{models.ContentStatePublished, models.ContentStateEdited},
	)

(If you want to use a slice in your query, use Postgres arrays instead of IN.)

To query multiple columns at once, use a struct type with `db:"column_name"` tags and the special $columns placeholder:

	type Post struct {
		ID     int    `db:"id"`
		Title  string `db:"title"`
		Number *int   `db:"number"`
	}
	posts, err := db.Query[Post](ctx, conn, `SELECT $columns FROM post`)
	// Resulting query:
	// SELECT id, title, number FROM post

Fields of untagged embedded structs are promoted, so shared column sets can be embedded. When a table prefix is needed to disambiguate columns, write $columns{prefix}:

	posts, err := db.Query[Post](ctx, conn, `
		SELECT $columns{p}
		FROM post AS p JOIN project ON project.id = p.project_id
	`)
	// SELECT p.id, p.title, p.number FROM ...

Use QueryBuilder to assemble queries with optional clauses; its $? placeholders are numbered for you.
*/
package db
