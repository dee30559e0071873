package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-finance/luca/internal/categorize"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "luca-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "luca")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/luca")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runLuca(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// initProject creates a project in a temp dir and returns its path.
func initProject(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runLuca(t, append([]string{"init", dir, "--user", "alice"}, args...)...)
	require.NoError(t, err, out)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initProject(t)

	expectedDirs := []string{
		"rules",
		"ledger",
		"data",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := initProject(t)

	data, err := os.ReadFile(filepath.Join(dir, "luca.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "id: alice")
	assert.Contains(t, contents, "driver: sqlite")
	assert.Contains(t, contents, "file: rules/categorization-rules.yaml")
}

func TestInit_StorageFlag(t *testing.T) {
	dir := initProject(t, "--storage", "none")

	data, err := os.ReadFile(filepath.Join(dir, "luca.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: none")

	_, err = runLuca(t, "init", t.TempDir(), "--user", "bob", "--storage", "mysql")
	assert.Error(t, err)
}

func TestInit_Rules(t *testing.T) {
	dir := initProject(t)

	c, err := categorize.LoadRules(filepath.Join(dir, "rules", "categorization-rules.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Rules(), len(categorize.DefaultRules()))
}

func TestInit_GitRepo(t *testing.T) {
	dir := initProject(t)

	// .git directory should exist.
	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	// git log should have an init commit.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	// Verify author.
	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Luca <luca@localhost>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := initProject(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "data/")
}

func TestInit_RequiresUser(t *testing.T) {
	_, err := runLuca(t, "init", t.TempDir())
	require.Error(t, err, "init without --user should fail")
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := initProject(t)

	out, err := runLuca(t, "init", dir, "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}
