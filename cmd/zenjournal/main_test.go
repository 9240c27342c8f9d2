package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// sandbox points every storage and config path at a fresh temp dir.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("ZENJOURNAL_STORAGE_DRIVER", "fs")
	t.Setenv("ZENJOURNAL_FS_ROOT", filepath.Join(dir, "kv"))
	t.Setenv("ZENJOURNAL_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := cli(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

var releasedRe = regexp.MustCompile(`Released #(\d+)`)

func addThought(t *testing.T, text string) string {
	t.Helper()
	r := runCLI(t, "", "add", text)
	require.Equal(t, 0, r.code, r.stderr)
	m := releasedRe.FindStringSubmatch(r.stdout)
	require.Len(t, m, 2, r.stdout)
	return m[1]
}

func TestAddListAndRecent(t *testing.T) {
	sandbox(t)
	addThought(t, "the inbox can wait")
	addThought(t, "I am not my deadlines")
	r := runCLI(t, "", "add", "breathe")
	require.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "3 thoughts offloaded")
	addThought(t, "fourth")

	r = runCLI(t, "", "list")
	require.Equal(t, 0, r.code, r.stderr)
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "fourth")
	assert.Contains(t, lines[0], "Today")
	assert.Contains(t, lines[3], "the inbox can wait")

	r = runCLI(t, "", "list", "--limit", "2")
	assert.Len(t, strings.Split(strings.TrimSpace(r.stdout), "\n"), 2)

	r = runCLI(t, "", "recent")
	require.Equal(t, 0, r.code, r.stderr)
	assert.NotContains(t, r.stdout, "the inbox can wait")
	assert.Contains(t, r.stdout, "4 thoughts offloaded")
}

func TestAddFromStdin(t *testing.T) {
	sandbox(t)
	r := runCLI(t, "let it float away\n", "add")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stderr, "What's on your mind?")
	assert.Contains(t, r.stdout, "1 thought offloaded")

	r = runCLI(t, "", "list")
	assert.Contains(t, r.stdout, "let it float away")
}

func TestAddRejectsBlank(t *testing.T) {
	sandbox(t)
	r := runCLI(t, "   \n", "add")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "nothing to release")

	r = runCLI(t, "", "stats")
	assert.Contains(t, r.stdout, "Thoughts released:      0")
}

func TestEditAndDelete(t *testing.T) {
	sandbox(t)
	id := addThought(t, "draft")

	r := runCLI(t, "", "edit", id, "final", "version")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Updated #"+id)
	assert.Contains(t, runCLI(t, "", "list").stdout, "final version")

	r = runCLI(t, "", "edit", "42", "nope")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no thought with id 42")

	r = runCLI(t, "", "delete", id)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Deleted #"+id)

	r = runCLI(t, "", "delete", id)
	assert.Equal(t, 0, r.code, "repeated delete is a no-op")
	assert.Contains(t, r.stdout, "already gone")

	r = runCLI(t, "", "stats")
	assert.Contains(t, r.stdout, "Thoughts released:      1")
	assert.Contains(t, r.stdout, "Thoughts kept:          0")
}

func TestCorruptStorageIsRecovered(t *testing.T) {
	dir := sandbox(t)
	root := filepath.Join(dir, "kv")
	require.NoError(t, os.MkdirAll(root, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "thoughts"), []byte("{not json"), 0o600))

	r := runCLI(t, "", "list")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "No thoughts yet")

	addThought(t, "clean slate")
	assert.Contains(t, runCLI(t, "", "list").stdout, "clean slate")
}

func TestConfigFileSelectsStorage(t *testing.T) {
	dir := sandbox(t)
	t.Setenv("ZENJOURNAL_STORAGE_DRIVER", "")
	os.Unsetenv("ZENJOURNAL_STORAGE_DRIVER")
	dbPath := filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: sqlite\n  sqlite_path: "+dbPath+"\nlog:\n  level: error\n"), 0o600))

	r := runCLI(t, "", "--config", cfgPath, "add", "stored in sqlite")
	require.Equal(t, 0, r.code, r.stderr)
	_, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Contains(t, runCLI(t, "", "--config", cfgPath, "list").stdout, "stored in sqlite")
}

func TestInvalidConfigFails(t *testing.T) {
	sandbox(t)
	t.Setenv("ZENJOURNAL_STORAGE_DRIVER", "floppy")
	r := runCLI(t, "", "stats")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid config")
}

func TestZenSessionCredited(t *testing.T) {
	sandbox(t)
	synctest.Test(t, func(t *testing.T) {
		r := runCLI(t, "", "zen", "--duration", "37s")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, "BREATHE IN...")
		assert.Contains(t, r.stdout, "EMPTY YOUR LUNGS")
		assert.Contains(t, r.stdout, "3 cycles completed.")
		assert.Contains(t, r.stdout, "Total sessions: 1")
	})
	assert.Contains(t, runCLI(t, "", "stats").stdout, "Zen sessions completed: 1")
}

func TestZenSessionTooShort(t *testing.T) {
	sandbox(t)
	synctest.Test(t, func(t *testing.T) {
		r := runCLI(t, "", "zen", "--duration", "20s")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, "1 cycle completed.")
		assert.Contains(t, r.stdout, "(1/3 cycles)")
		assert.Contains(t, r.stdout, "Total sessions: 0")
	})
}

func TestZenStopsOnCancel(t *testing.T) {
	sandbox(t)
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var out, errOut bytes.Buffer
		done := make(chan int)
		go func() { done <- cli(ctx, []string{"zen"}, strings.NewReader(""), &out, &errOut) }()

		// Let three cycles and a bit pass, then interrupt.
		synctest.Wait()
		time.Sleep(37 * time.Second)
		cancel()
		require.Equal(t, 0, <-done, errOut.String())
		assert.Contains(t, out.String(), "Session complete")
	})
}

func TestMainUsesExitFunc(t *testing.T) {
	sandbox(t)
	got := -1
	orig := exitFunc
	exitFunc = func(code int) { got = code }
	t.Cleanup(func() { exitFunc = orig })

	origArgs := os.Args
	os.Args = []string{"zenjournal", "stats"}
	t.Cleanup(func() { os.Args = origArgs })

	main()
	assert.Equal(t, 0, got)
}
