package animset

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml
var SetsFS embed.FS

// Dir is the on-disk directory whose files override the embedded ones.
var Dir = "animset"

// Load reads a body set file, preferring the on-disk copy.
func Load(name string) ([]byte, error) {
	clean := cleanSetPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return SetsFS.ReadFile(clean)
}

// LoadScript reads a tengo script, preferring the on-disk copy.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// ModTime reports the modification time of the on-disk copy of name.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPath(cleanSetPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// SetFiles lists the embedded body set files.
func SetFiles() ([]string, error) {
	entries, err := fs.ReadDir(SetsFS, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && isSpecFile(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func cleanSetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "animset/"); ok {
		s = after
	}
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "animset/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	if !isScriptFile(s) {
		s += ".tengo"
	}
	return fmt.Sprintf("scripts/%s", s)
}

func diskPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
