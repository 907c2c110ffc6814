package main

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExpenses(t *testing.T, env *testEnv) {
	t.Helper()
	env.mustRun("categories", "add", "Food")
	env.mustRun("categories", "add", "Coffee", "--parent", "Food")
	env.mustRun("categories", "add", "Rent")
	env.mustRun("expenses", "add", "3.50", "--category", "Coffee", "--date", "2024-06-01", "--comment", "flat white")
	env.mustRun("expenses", "add", "$1,200", "-c", "Rent", "-d", "2024-06-02", "-m", "June rent")
	env.mustRun("expenses", "add", "42.10", "-c", "1", "-d", "2024-05-20", "-m", "groceries")
}

func TestExpenses_AddAndList(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("expenses", "list")
	assert.Contains(t, out, "No expenses found.")

	seedExpenses(t, env)

	out = env.mustRun("expenses", "list")
	for _, want := range []string{"flat white", "Food / Coffee", "3.50", "June rent", "1200.00", "groceries", "2024-05-20"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "3 expenses, total 1245.60")
	assert.Less(t, strings.Index(out, "June rent"), strings.Index(out, "flat white"), "newest first")
	assert.Less(t, strings.Index(out, "flat white"), strings.Index(out, "groceries"))
}

func TestExpenses_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	seedExpenses(t, env)

	out := env.mustRun("expenses", "list", "--category", "Food")
	assert.Contains(t, out, "groceries")
	assert.NotContains(t, out, "flat white", "filtering is exact, not by subtree")
	assert.Contains(t, out, "1 expenses, total 42.10")

	out = env.mustRun("expenses", "list", "--since", "2024-06-01")
	assert.Contains(t, out, "flat white")
	assert.Contains(t, out, "June rent")
	assert.NotContains(t, out, "groceries")

	_, err := env.run("", "expenses", "list", "--since", "last week")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = env.run("", "expenses", "list", "--category", "Travel")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpenses_AddDefaultsToNow(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("categories", "add", "Food")

	out := env.mustRun("expenses", "add", "5", "--category", "Food")
	assert.Contains(t, out, "Recorded 5.00 on Food (#1)")

	out = env.mustRun("expenses", "list")
	assert.Contains(t, out, time.Now().Format(dateLayout))
}

func TestExpenses_AddErrors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		args    []string
	}{
		{name: "negative amount", args: []string{"expenses", "add", "-5", "-c", "Food"}},
		{name: "not a number", args: []string{"expenses", "add", "lots", "-c", "Food"}},
		{name: "missing category", args: []string{"expenses", "add", "5"}, wantErr: common.ErrInvalidArgument},
		{name: "unknown category", args: []string{"expenses", "add", "5", "-c", "Travel"}, wantErr: common.ErrNotFound},
		{name: "bad date", args: []string{"expenses", "add", "5", "-c", "Food", "-d", "06/01/2024"}, wantErr: common.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mustRun("categories", "add", "Food")

			_, err := env.run("", tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExpenses_Update(t *testing.T) {
	env := newTestEnv(t)
	seedExpenses(t, env)

	out := env.mustRun("expenses", "update", "1", "--amount", "4.25", "--comment", "cortado", "--category", "Food")
	assert.Contains(t, out, "Updated expense #1")

	out = env.mustRun("expenses", "list", "--category", "Food")
	assert.Contains(t, out, "cortado")
	assert.Contains(t, out, "4.25")
	assert.Contains(t, out, "2024-06-01", "unchanged fields are kept")

	_, err := env.run("", "expenses", "update", "99", "--amount", "1")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpenses_Delete(t *testing.T) {
	env := newTestEnv(t)
	seedExpenses(t, env)

	out, err := env.run("no\n", "expenses", "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete expense #2 (1200.00, 2024-06-02)?")
	assert.Contains(t, out, "Delete canceled.")

	out = env.mustRun("expenses", "delete", "2", "--force")
	assert.Contains(t, out, "Deleted expense #2")

	out = env.mustRun("expenses", "list")
	assert.NotContains(t, out, "June rent")
	assert.Contains(t, out, "2 expenses")

	_, err = env.run("", "expenses", "delete", "2", "--force")
	require.ErrorIs(t, err, common.ErrNotFound)
}
