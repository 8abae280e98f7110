package cmd

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against a database in dir.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	for f, v := range map[string]string{"example": "", "audio": ""} {
		require.NoError(t, addCmd.Flags().Set(f, v))
	}
	require.NoError(t, reviewCmd.Flags().Set("plain", "false"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--db", filepath.Join(dir, "lexiz.db")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("LEXIZ_DB", "")
	t.Chdir(dir)
	return dir
}

func TestCLI_AddListDelete(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, dir, "", "add", "casa", "house", "--example", "La casa es grande.")
	require.NoError(t, err)
	id := regexp.MustCompile(`Added (\S+)`).FindStringSubmatch(out)
	require.Len(t, id, 2)

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "casa")
	assert.Contains(t, out, "New")

	out, err = run(t, dir, "", "due")
	require.NoError(t, err)
	assert.Contains(t, out, "1 item(s) due")

	out, err = run(t, dir, "", "delete", id[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, err = run(t, dir, "", "delete", id[1])
	assert.ErrorContains(t, err, "not found")

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No items yet")
}

func TestCLI_AddRejectsBlankTerm(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "add", " ", "house")
	assert.Error(t, err)
}

func TestCLI_PlainReview(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "add", "perro", "dog")
	require.NoError(t, err)

	out, err := run(t, dir, "dog\n3\n", "review", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/1]")
	assert.Contains(t, out, "Session complete!")
	assert.Contains(t, out, "Reviewed 1/1")

	out, err = run(t, dir, "", "due")
	require.NoError(t, err)
	assert.Contains(t, out, "0 item(s) due")

	out, err = run(t, dir, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Items: 1")
	assert.Contains(t, out, "traditional")
}

func TestCLI_PlainReviewStopsOnEOF(t *testing.T) {
	dir := isolate(t)
	for _, w := range []string{"uno", "dos"} {
		_, err := run(t, dir, "", "add", w, w+"-en")
		require.NoError(t, err)
	}

	out, err := run(t, dir, "", "review", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Session ended early")
}

func TestCLI_PlainReviewNothingDue(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, dir, "", "review", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing due right now.")
}

func TestCLI_Version(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, dir, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lexiz (devel)")
}
