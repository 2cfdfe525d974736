package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/prefs"
)

// Context carries the wired backend and device preferences into command Run
// methods.
type Context struct {
	Client     api.Client
	Prefs      *prefs.Store
	ConfigPath string
	Sandbox    bool
	Debug      bool
}

// ExpandPath resolves a leading ~ against the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
