package db

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	type CustomInt int
	type S struct {
		I   int        `db:"I"`
		PI  *int       `db:"PI"`
		CI  CustomInt  `db:"CI"`
		PCI *CustomInt `db:"PCI"`
		T   time.Time  `db:"T"`

		NoTag int
	}
	type Embedded struct {
		E  string  `db:"E"`
		PE *string `db:"PE"`
	}
	type Nested struct {
		Embedded
		S  S  `db:"S"`
		PS *S `db:"PS"`

		NoTag S
	}

	names, paths := getColumnNamesAndPaths(reflect.TypeOf(Nested{}), nil, "")
	assert.Equal(t, []string{
		"E", "PE",
		"S.I", "S.PI", "S.CI", "S.PCI", "S.T",
		"PS.I", "PS.PI", "PS.CI", "PS.PCI", "PS.T",
	}, names)
	assert.Equal(t, []fieldPath{
		{0, 0}, {0, 1},
		{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4},
		{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4},
	}, paths)

	testStruct := Nested{}
	for _, path := range paths {
		val := followPathThroughStructs(reflect.ValueOf(&testStruct), path)
		assert.True(t, val.CanAddr())
	}
	assert.NotNil(t, testStruct.PS, "following a path allocates nil struct pointers")
}

func TestCompileQuery(t *testing.T) {
	type Post struct {
		ID    int    `db:"id"`
		Title string `db:"title"`
	}

	t.Run("no placeholder", func(t *testing.T) {
		compiled := compileQuery("SELECT id FROM post", reflect.TypeOf(0))
		assert.Equal(t, "SELECT id FROM post", compiled.query)
		assert.Nil(t, compiled.fieldPaths)
	})
	t.Run("columns", func(t *testing.T) {
		compiled := compileQuery("SELECT $columns FROM post", reflect.TypeOf(Post{}))
		assert.Equal(t, "SELECT id, title FROM post", compiled.query)
	})
	t.Run("prefixed columns", func(t *testing.T) {
		compiled := compileQuery("SELECT $columns{p} FROM post AS p", reflect.TypeOf(Post{}))
		assert.Equal(t, "SELECT p.id, p.title FROM post AS p", compiled.query)
	})
	t.Run("scalar with columns panics", func(t *testing.T) {
		assert.Panics(t, func() {
			compileQuery("SELECT $columns FROM post", reflect.TypeOf(0))
		})
	})
}

func TestQueryBuilder(t *testing.T) {
	var qb QueryBuilder
	qb.Add("SELECT id FROM post WHERE project_id = $?", 4)
	qb.Add("AND state = ANY($?) LIMIT $?", []string{"published", "edited"}, 10)

	assert.Equal(t, "SELECT id FROM post WHERE project_id = $1\nAND state = ANY($2) LIMIT $3\n", qb.String())
	assert.Equal(t, []interface{}{4, []string{"published", "edited"}, 10}, qb.Args())

	assert.Panics(t, func() {
		qb.Add("AND id = $?")
	})

	t.Run("paging", func(t *testing.T) {
		var qb QueryBuilder
		qb.Add("SELECT id FROM post WHERE user_id = $?", 2)
		qb.AddPage(20, 40)
		assert.Equal(t, "SELECT id FROM post WHERE user_id = $1\nLIMIT $2\nOFFSET $3\n", qb.String())
		assert.Equal(t, []any{2, 20, 40}, qb.Args())

		var first QueryBuilder
		first.AddPage(0, 0)
		first.AddPage(5, 0)
		assert.Equal(t, "LIMIT $1\n", first.String())
	})
}
