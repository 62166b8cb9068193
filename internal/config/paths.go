package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv names the directory relative runtime paths (logs, sqlite files)
// are resolved against. When unset the binary's own directory is used.
const HomeEnv = "FIELDKIT_HOME"

// HomeDir returns $FIELDKIT_HOME, else the directory holding the resolved
// executable, else the working directory.
func HomeDir() string {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		if abs, err := filepath.Abs(expandHome(home)); err == nil {
			return abs
		}
	}

	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// RuntimePath maps a configured path to an absolute one. Empty falls back
// to def; "~/" is the user's home; other relative paths hang off HomeDir.
func RuntimePath(raw, def string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = def
	}
	target = expandHome(target)
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(HomeDir(), target)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
