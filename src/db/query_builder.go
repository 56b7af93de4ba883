package db

import (
	"fmt"
	"strconv"
	"strings"
)

/*
Builds a query out of chunks whose arguments are written as `$?`. Each
placeholder is numbered as it is added, so chunks can be appended
conditionally without tracking argument positions:

	var qb QueryBuilder
	qb.Add(`SELECT $columns FROM post WHERE project_id = $?`, projectID)
	if authorID != 0 {
		qb.Add(`AND user_id = $?`, authorID)
	}
	qb.AddPage(limit, offset)
	db.Query[models.Post](ctx, conn, qb.String(), qb.Args()...)
*/
type QueryBuilder struct {
	sql  strings.Builder
	args []any
}

// Panics if the number of placeholders and arguments differ.
func (qb *QueryBuilder) Add(chunk string, args ...any) {
	if n := strings.Count(chunk, "$?"); n != len(args) {
		panic(fmt.Errorf("query chunk has %d placeholders but %d arguments: %s", n, len(args), chunk))
	}

	for _, arg := range args {
		i := strings.Index(chunk, "$?")
		qb.sql.WriteString(chunk[:i])
		qb.args = append(qb.args, arg)
		qb.sql.WriteString("$" + strconv.Itoa(len(qb.args)))
		chunk = chunk[i+2:]
	}
	qb.sql.WriteString(chunk)
	qb.sql.WriteByte('\n')
}

// Adds LIMIT and OFFSET clauses for whichever of the two is positive.
func (qb *QueryBuilder) AddPage(limit, offset int) {
	if limit > 0 {
		qb.Add(`LIMIT $?`, limit)
	}
	if offset > 0 {
		qb.Add(`OFFSET $?`, offset)
	}
}

func (qb *QueryBuilder) String() string {
	return qb.sql.String()
}

func (qb *QueryBuilder) Args() []any {
	return qb.args
}
