package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), err
}

func givenSQLiteEnvironment(t *testing.T) {
	t.Setenv("LENDING_DB_DRIVER", "sqlite")
	t.Setenv("LENDING_DB_DSN", filepath.Join(t.TempDir(), "lending.db"))
	t.Setenv("LENDING_LOG_LEVEL", "error")
}

func Test_CLI_Lending_Round_Trip(t *testing.T) {
	// setup
	givenSQLiteEnvironment(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	// act
	added, addErr := run(t, "item", "add", "--code", "DDD", "--title", "Learning Domain-Driven Design", "--copies", "1")
	issued, issueErr := run(t, "issue", "--code", "DDD", "--name", "Ada", "--contact", "555-0100", "--due", "2030-01-15")
	_, secondIssueErr := run(t, "issue", "--code", "DDD", "--name", "Bob", "--contact", "555-0200", "--due", "2030-01-20")
	loans, loansErr := run(t, "loans")
	returned, returnErr := run(t, "return", "--code", "DDD", "--name", "Ada", "--contact", "555-0100")
	summary, summaryErr := run(t, "summary")

	// assert
	require.NoError(t, addErr)
	assert.Contains(t, added, `"code": "DDD"`)

	require.NoError(t, issueErr)
	assert.Contains(t, issued, `"due_date": "2030-01-15"`)

	assert.ErrorIs(t, secondIssueErr, lending.ErrUnavailable)

	require.NoError(t, loansErr)
	assert.Contains(t, loans, "2030-01-15")
	assert.Contains(t, loans, "Ada")

	require.NoError(t, returnErr)
	assert.NotContains(t, returned, `"returned_date": null`)

	require.NoError(t, summaryErr)
	assert.Contains(t, summary, `"available_books": 1`)
	assert.Contains(t, summary, `"issued": 0`)
}

func Test_CLI_Item_List_Searches_By_Title(t *testing.T) {
	// setup
	givenSQLiteEnvironment(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "item", "add", "--code", "GO", "--title", "The Go Programming Language")
	require.NoError(t, err)
	_, err = run(t, "item", "add", "--code", "DDD", "--title", "Learning Domain-Driven Design")
	require.NoError(t, err)

	// act
	found, searchErr := run(t, "item", "list", "--search", "Go Prog")

	// assert
	require.NoError(t, searchErr)
	assert.Contains(t, found, `"code": "GO"`)
	assert.NotContains(t, found, `"code": "DDD"`)
}

func Test_CLI_Fails_On_Invalid_Configuration(t *testing.T) {
	// setup
	t.Setenv("LENDING_DB_DRIVER", "oracle")

	// act
	_, err := run(t, "migrate")

	// assert
	assert.Error(t, err)
}

func Test_CLI_Loadgen_Verifies_Inventory(t *testing.T) {
	// setup
	givenSQLiteEnvironment(t)

	// act
	_, err := run(t, "loadgen", "--rate", "100", "--items", "2", "--borrowers", "3", "--duration", "300ms")

	// assert
	assert.NoError(t, err)
}
