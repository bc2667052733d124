// Package exclude supplies the excluded-directory prefixes an index
// pass filters on. Exclusions come from configuration or flags; this
// package only normalizes and hands them out, it does not persist them.
package exclude

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Provider yields the current set of excluded directory prefixes
type Provider interface {
	Excluded() ([]string, error)
}

// Static is a fixed exclusion list
type Static []string

// Excluded returns the normalized prefixes
func (s Static) Excluded() ([]string, error) {
	return Normalize(s), nil
}

// configProvider reads exclusions from a viper key on every call, so a
// re-index after a config change sees the new set
type configProvider struct {
	key string
}

// FromConfig returns a Provider backed by the given viper key
func FromConfig(key string) Provider {
	return &configProvider{key: key}
}

func (c *configProvider) Excluded() ([]string, error) {
	return Normalize(viper.GetStringSlice(c.key)), nil
}

// Normalize cleans prefixes, drops empties and duplicates, and strips
// trailing separators so matching can treat every prefix as a directory
func Normalize(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	var result []string
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		dir = strings.TrimSuffix(filepath.Clean(dir), "/")
		if dir == "" || dir == "." {
			continue
		}
		if seen[dir] {
			continue
		}
		seen[dir] = true
		result = append(result, dir)
	}
	return result
}

// Excludes reports whether path lies under prefix, honoring directory
// boundaries: "/music/rock" covers "/music/rock/a.mp3" but not
// "/music/rockabilly/b.mp3"
func Excludes(prefix, path string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
