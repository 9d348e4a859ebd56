package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduscan/internal/config"
	"eduscan/internal/entrance"
)

const roster = `students:
  - id: STU001
    name: Ana García
    guardianName: Carlos García
    guardianContact: "+51 987654321"
  - id: STU002
    name: Luis Pérez
`

type harness struct {
	cfg    config.App
	roster string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	path := filepath.Join(dir, "students.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roster), 0o644))
	return &harness{
		cfg: config.App{
			StoreBackend:   "sqlite",
			SQLitePath:     filepath.Join(dir, "eduscan.db"),
			QueueBackend:   "memory",
			SchoolTZ:       "UTC",
			TextGenTimeout: time.Second,
		},
		roster: path,
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand(&RootOptions{Config: func() config.App { return h.cfg }})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedIsIdempotent(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "seed", "--file", h.roster)
	require.NoError(t, err)
	assert.Equal(t, "enrolled 2 students, 0 already present\n", out)

	out, err = h.run(t, "seed", "--file", h.roster, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":0,"skipped":2}`, out)
}

func TestSeedRequiresFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestCloseDayAndLedger(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "seed", "--file", h.roster)
	require.NoError(t, err)

	out, err := h.run(t, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "total 2  present 0  absent 0  pending 2")
	assert.Contains(t, out, "Ana García")

	out, err = h.run(t, "close-day", "--format", "json")
	require.NoError(t, err)
	var res entrance.DayCloseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Closed)
	require.Len(t, res.Notifications, 2)
	assert.Contains(t, res.Notifications[0].Message, "no se ha presentado hoy")

	out, err = h.run(t, "close-day")
	require.NoError(t, err)
	assert.Contains(t, out, ": 0 marked absent")

	out, err = h.run(t, "ledger", "--format", "json")
	require.NoError(t, err)
	var view entrance.LedgerView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 2, view.Counts.Absent)
}

func TestLedgerUnknownDate(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "ledger", "--date", "1999-01-01")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "seed", "--file", h.roster)
	require.NoError(t, err)

	out, err := h.run(t, "remove", "STU002")
	require.NoError(t, err)
	assert.Equal(t, "removed STU002\n", out)

	_, err = h.run(t, "remove", "STU002")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}

func TestPurge(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "seed", "--file", h.roster)
	require.NoError(t, err)

	_, err = h.run(t, "purge", time.Now().UTC().Format("2006-01-02"))
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))

	_, err = h.run(t, "purge", "1999-01-01")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "ledger", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
