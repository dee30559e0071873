package commands_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestImport_ScansImportDir(t *testing.T) {
	dir := initProject(t)
	copyFixture(t, "caixabank.csv", filepath.Join(dir, "import", "caixabank.csv"))

	out, err := runLuca(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "caixabank.csv: caixabank, 5 parsed, 5 new, 5 saved")

	// The export moves to processed.
	_, err = os.Stat(filepath.Join(dir, "import", "caixabank.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "caixabank.csv"))
	assert.NoError(t, err)

	// Rows land in the monthly ledger.
	data, err := os.ReadFile(filepath.Join(dir, "ledger", "2025", "03", "transactions.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mercadona Barcelona")

	// The import is committed.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	msg, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "import: 5 new transactions from 1 file(s)")
}

func TestImport_Idempotent(t *testing.T) {
	dir := initProject(t)
	export := filepath.Join(t.TempDir(), "caixabank.csv")
	copyFixture(t, "caixabank.csv", export)

	out, err := runLuca(t, "import", "--dir", dir, export)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 new")

	out, err = runLuca(t, "import", "--dir", dir, export)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 parsed, 0 new, 0 saved")

	// Explicit paths are never moved.
	_, err = os.Stat(export)
	assert.NoError(t, err)
}

func TestImport_LocalOnly(t *testing.T) {
	dir := initProject(t, "--storage", "none")
	export := filepath.Join(t.TempDir(), "revolut.csv")
	copyFixture(t, "revolut_consolidated.csv", export)

	out, err := runLuca(t, "import", "--dir", dir, export)
	require.NoError(t, err, out)
	assert.Contains(t, out, "revolut, 5 parsed, 5 new, 5 saved (local ledger only)")
}

func TestImport_FailingFileIsReported(t *testing.T) {
	dir := initProject(t)
	copyFixture(t, "caixabank.csv", filepath.Join(dir, "import", "caixabank.csv"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "notes.txt"), []byte("hello"), 0o644))

	out, err := runLuca(t, "import", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "notes.txt: error:")
	assert.Contains(t, out, "caixabank.csv: caixabank, 5 parsed, 5 new")

	// The failed file stays for another try.
	_, err = os.Stat(filepath.Join(dir, "import", "notes.txt"))
	assert.NoError(t, err)
}

func TestImport_NothingToDo(t *testing.T) {
	dir := initProject(t)

	out, err := runLuca(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No files to import")
}

func TestImport_OutsideProject(t *testing.T) {
	_, err := runLuca(t, "import", "--dir", t.TempDir())
	assert.Error(t, err)
}

func TestSync(t *testing.T) {
	dir := initProject(t)
	export := filepath.Join(t.TempDir(), "caixabank.csv")
	copyFixture(t, "caixabank.csv", export)

	_, err := runLuca(t, "import", "--dir", dir, export)
	require.NoError(t, err)

	out, err := runLuca(t, "sync", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 of 5 transactions synced")

	local := initProject(t, "--storage", "none")
	_, err = runLuca(t, "sync", "--dir", local)
	assert.Error(t, err)
}

func importedProject(t *testing.T) string {
	t.Helper()
	dir := initProject(t)
	export := filepath.Join(t.TempDir(), "caixabank.csv")
	copyFixture(t, "caixabank.csv", export)
	out, err := runLuca(t, "import", "--dir", dir, export)
	require.NoError(t, err, out)
	return dir
}

func TestSummary_JSON(t *testing.T) {
	dir := importedProject(t)

	out, err := runLuca(t, "summary", "--dir", dir, "--json", "--log-level", "error")
	require.NoError(t, err, out)

	var report struct {
		Summary struct {
			TransactionCount int `json:"transaction_count"`
			MonthCount       int `json:"month_count"`
		} `json:"summary"`
		Monthly []json.RawMessage `json:"monthly"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 5, report.Summary.TransactionCount)
	assert.Equal(t, 2, report.Summary.MonthCount)
	assert.Len(t, report.Monthly, 2)
}

func TestSummary_Text(t *testing.T) {
	dir := importedProject(t)

	out, err := runLuca(t, "summary", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Resumen (2 meses, 5 movimientos)")
	assert.Contains(t, out, "Mar 2025")
}

func TestTransactions(t *testing.T) {
	dir := importedProject(t)

	out, err := runLuca(t, "transactions", "--dir", dir, "--search", "mercadona")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Mercadona Barcelona")
	assert.Contains(t, out, "-45,30")
	assert.NotContains(t, out, "Spotify")

	out, err = runLuca(t, "transactions", "--dir", dir, "--type", "income", "--json")
	require.NoError(t, err, out)
	assert.Equal(t, 2, strings.Count(out, `"concept"`))

	_, err = runLuca(t, "transactions", "--dir", dir, "--category", "groceries")
	assert.Error(t, err)
}

func TestCategorize(t *testing.T) {
	dir := initProject(t)

	out, err := runLuca(t, "categorize", "--dir", dir, "--log-level", "error", "MERCADONA VALENCIA", "--amount", "-45,30")
	require.NoError(t, err, out)
	assert.Equal(t, "Supermercado (supermarket)\n", out)

	_, err = runLuca(t, "categorize", "--dir", dir, "MERCADONA", "--amount", "abc")
	assert.Error(t, err)
}
