package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chameneos/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CHAMENEOS_COLORS", "")
	t.Setenv("CHAMENEOS_MEETINGS", "")
	t.Setenv("CHAMENEOS_STORE", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("OTEL_METRICS_EXPORTER", "none")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTableCommand(t *testing.T) {
	out, err := execute(t, "table")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "blue + red -> yellow", lines[1])
}

func TestRunCommand_Defaults(t *testing.T) {
	out, err := execute(t, "run", "600", "--log-level", "error")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "blue + blue -> blue\n"))
	assert.Contains(t, out, "\n blue red yellow\n")
	assert.Contains(t, out, "\n blue red yellow red yellow blue red yellow red blue\n")
	assert.Equal(t, 2, strings.Count(out, " one two zero zero\n"))
}

func TestRunCommand_LockedCustomGroups(t *testing.T) {
	out, err := execute(t, "run", "100", "--strategy", "locked", "--colors", "blue,red", "--colors", "yellow,yellow,red", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "\n blue red\n")
	assert.Contains(t, out, "\n yellow yellow red\n")
	assert.Equal(t, 2, strings.Count(out, " two zero zero\n"))
}

func TestRunCommand_JSON(t *testing.T) {
	out, err := execute(t, "run", "50", "--json", "--tap", "256", "--colors", "blue,red,yellow", "--log-level", "error")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	r, err := report.Unmarshal([]byte(lines[0]))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), r.Meetings)
	assert.Len(t, r.Pairs, 3)
}

func TestRunCommand_InvalidInput(t *testing.T) {
	_, err := execute(t, "run", "0")
	assert.ErrorContains(t, err, "meetings must be positive")

	_, err = execute(t, "run", "ten")
	assert.Error(t, err)

	_, err = execute(t, "run", "--colors", "blue,green")
	assert.ErrorContains(t, err, "unknown color")

	_, err = execute(t, "run", "--strategy", "optimistic")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestHistoryAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "run", "300", "--store", db, "--log-level", "error")
	require.NoError(t, err)

	out, err := execute(t, "history", "--store", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, out, "meetings=300")

	id := strings.Fields(lines[0])[0]
	out, err = execute(t, "show", id, "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, " six zero zero\n")

	out, err = execute(t, "show", id, "--store", db, "--json")
	require.NoError(t, err)
	r, err := report.Unmarshal([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)

	_, err = execute(t, "show", "nope", "--store", db)
	assert.ErrorContains(t, err, "not found")
}

func TestStorePath_BadEnvKeepsStore(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "env.db")
	t.Setenv("CHAMENEOS_STORE", want)
	t.Setenv("CHAMENEOS_MEETINGS", "many")

	root := &rootOptions{configPath: filepath.Join(dir, "missing.yaml")}
	assert.Equal(t, want, storePath(root))

	root.storePath = "flag.db"
	assert.Equal(t, "flag.db", storePath(root))
}
