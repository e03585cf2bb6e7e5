package sqlengine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func engineWithDialect(t *testing.T, dialect Dialect) Engine {
	e, err := newEngine(nil, WithDialect(dialect))
	require.NoError(t, err)

	return e
}

func Test_BuildItemByCodeQuery_Locks_The_Row_On_Postgres(t *testing.T) {
	// arrange
	e := engineWithDialect(t, DialectPostgres)

	// act
	locked, args, err := e.buildItemByCodeQuery("B1", true).ToSQL()
	require.NoError(t, err)
	unlocked, _, err := e.buildItemByCodeQuery("B1", false).ToSQL()
	require.NoError(t, err)

	// assert
	assert.Contains(t, locked, "FOR UPDATE")
	assert.Contains(t, locked, `"code" = $1`)
	assert.Equal(t, []any{"B1"}, args)
	assert.NotContains(t, unlocked, "FOR UPDATE")
}

func Test_BuildItemByCodeQuery_Has_No_Row_Lock_On_SQLite(t *testing.T) {
	// arrange
	e := engineWithDialect(t, DialectSQLite)

	// act
	query, _, err := e.buildItemByCodeQuery("B1", true).ToSQL()

	// assert
	require.NoError(t, err)
	assert.NotContains(t, query, "FOR UPDATE")
	assert.Contains(t, query, "`code` = ?")
}

func Test_BuildUpsertBorrowerStatement_Overwrites_Name_And_Affiliation(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			// arrange
			e := engineWithDialect(t, dialect)

			// act
			statement, _, err := e.buildUpsertBorrowerStatement(lending.Borrower{
				ID:        uuid.New(),
				ContactID: "555-0001",
				Name:      "Ada",
			}).ToSQL()

			// assert
			require.NoError(t, err)
			assert.Contains(t, statement, "ON CONFLICT")
			assert.Contains(t, statement, "DO UPDATE SET")
			assert.Contains(t, statement, "excluded.name")
			assert.Contains(t, statement, "excluded.affiliation")
		})
	}
}

func Test_BuildGuardedCounterStatements(t *testing.T) {
	// arrange
	e := engineWithDialect(t, DialectPostgres)
	itemID := uuid.New()

	// act
	decrement, _, decErr := e.buildDecrementAvailableStatement(itemID).ToSQL()
	increment, _, incErr := e.buildIncrementAvailableStatement(itemID).ToSQL()

	// assert
	require.NoError(t, decErr)
	require.NoError(t, incErr)
	assert.Contains(t, decrement, `"available_copies" - 1`)
	assert.Contains(t, decrement, `"available_copies" > $`)
	assert.Contains(t, increment, `"available_copies" + 1`)
	assert.Contains(t, increment, `("available_copies" < "total_copies")`)
}

func Test_DateArg_Depends_On_Dialect(t *testing.T) {
	// arrange
	d, err := lending.ParseDate("2026-03-10")
	require.NoError(t, err)

	// act + assert
	assert.Equal(t, d.Time(), engineWithDialect(t, DialectPostgres).dateArg(d))
	assert.Equal(t, "2026-03-10", engineWithDialect(t, DialectSQLite).dateArg(d))
}

func Test_WithDialect_Rejects_Unknown_Dialects(t *testing.T) {
	// act
	_, err := newEngine(nil, WithDialect("mysql"))

	// assert
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}
