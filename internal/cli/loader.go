package cli

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/modules"
	"github.com/waypost-hq/waypost/internal/runner"
	"github.com/waypost-hq/waypost/internal/script"
	"github.com/waypost-hq/waypost/internal/store"
)

// scriptName derives a trip label from a script path: the base name
// without extension.
func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openRunner loads a script, opens the database, and wires the runner
// over the default module registry. The caller closes the returned
// store.
func openRunner(scriptPath, dbPath string) (*runner.Runner, *store.Store, error) {
	s, err := script.Load(scriptPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load script", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	k := kernel.New(modules.DefaultRegistry())
	return runner.New(scriptName(scriptPath), s, k, st), st, nil
}

// parseAt resolves an optional --at flag: empty means now.
func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, "invalid --at timestamp", err)
	}
	return at.UTC(), nil
}
