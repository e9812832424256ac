package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookclub/raffle/internal/raffle"
	"github.com/bookclub/raffle/internal/testutil"
)

// testEnv runs CLI commands against one database, sharing ids and clock
// across invocations the way separate processes share the stored state.
type testEnv struct {
	t      *testing.T
	dir    string
	config string
	ids    raffle.IDGenerator
	clock  *testutil.StepClock
	logs   bytes.Buffer
}

// testConfig is written to raffle.yaml; {{db}} becomes the database path.
const testConfig = `total_numbers: 5
price_per_number: "2.00"
currency: BRL
locale: pt-BR
storage:
  path: {{db}}
`

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig)
}

func newTestEnvWithConfig(t *testing.T, cfg string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "raffle.yaml")
	cfg = strings.ReplaceAll(cfg, "{{db}}", filepath.Join(dir, "raffle.db"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	return &testEnv{
		t:      t,
		dir:    dir,
		config: path,
		ids:    raffle.NewSequenceGenerator("r"),
		clock:  testutil.NewStepClock(time.Second),
	}
}

// run executes one command and returns its stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	opts := &RootOptions{IDs: e.ids, Clock: e.clock, LogWriter: &e.logs}
	cmd := newRootCommand(opts)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// mustRun executes a command that is expected to succeed.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "raffle %s\n%s", strings.Join(args, " "), out)
	return out
}
