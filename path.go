package sandsh

import "path/filepath"

// ResolvePath resolves p against cwd and returns a clean absolute path.
// Absolute inputs are only normalized. It does no I/O.
func ResolvePath(p, cwd string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(cwd, p))
}
