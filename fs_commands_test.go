package sandsh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFsCommands covers the file commands against an in-memory filesystem.
func TestFsCommands(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		line       string
		cwd        string
		wantStdout string
		wantStderr string
		wantCwd    string
		wantCode   int
	}{
		{
			name:       "pwd",
			line:       "pwd",
			cwd:        "/a/b",
			wantStdout: "/a/b\n",
		},
		{
			name:       "ls sorted",
			files:      map[string]string{"/d/b.txt": "", "/d/a.txt": "", "/d/c/": ""},
			line:       "ls",
			cwd:        "/d",
			wantStdout: "a.txt  b.txt  c\n",
		},
		{
			name:       "ls path",
			files:      map[string]string{"/d/x": "", "/other/": ""},
			line:       "ls /d",
			cwd:        "/other",
			wantStdout: "x\n",
		},
		{
			name:       "ls long",
			files:      map[string]string{"/d/big": "0123456789", "/d/small": "ab"},
			line:       "ls -l",
			cwd:        "/d",
			wantStdout: "      10 big\n       2 small\n",
		},
		{
			name:       "ls file",
			files:      map[string]string{"/d/f.txt": "x"},
			line:       "ls f.txt",
			cwd:        "/d",
			wantStdout: "f.txt\n",
		},
		{
			name:     "cd home",
			files:    map[string]string{"/home/tester/": ""},
			line:     "cd",
			cwd:      "/tmp",
			wantCwd:  "/home/tester",
			wantCode: 0,
		},
		{
			name:       "cd missing",
			line:       "cd nowhere",
			cwd:        "/",
			wantStderr: "cd: nowhere: No such file or directory\n",
			wantCode:   1,
		},
		{
			name:       "cd file",
			files:      map[string]string{"/f": "x"},
			line:       "cd f",
			cwd:        "/",
			wantStderr: "cd: f: Not a directory\n",
			wantCode:   1,
		},
		{
			name:       "mkdir missing operand",
			line:       "mkdir",
			cwd:        "/",
			wantStderr: "mkdir: missing operand\n",
			wantCode:   2,
		},
		{
			name:       "rm missing operand",
			line:       "rm",
			cwd:        "/",
			wantStderr: "rm: missing operand\n",
			wantCode:   2,
		},
		{
			name:       "rm missing file",
			line:       "rm ghost",
			cwd:        "/",
			wantStderr: "rm: cannot remove 'ghost': No such file or directory\n",
			wantCode:   1,
		},
		{
			name:       "rmdir not empty",
			files:      map[string]string{"/d/f": ""},
			line:       "rmdir d",
			cwd:        "/",
			wantStderr: "rmdir: failed to remove 'd': Directory not empty\n",
			wantCode:   1,
		},
		{
			name:       "rmdir file",
			files:      map[string]string{"/f": ""},
			line:       "rmdir f",
			cwd:        "/",
			wantStderr: "rmdir: failed to remove 'f': Not a directory\n",
			wantCode:   1,
		},
		{
			name:       "cat missing operand",
			line:       "cat",
			cwd:        "/",
			wantStderr: "cat: missing file operand\n",
			wantCode:   2,
		},
		{
			name:       "cat directory",
			files:      map[string]string{"/d/": ""},
			line:       "cat d",
			cwd:        "/",
			wantStderr: "cat: d: Is a directory\n",
			wantCode:   1,
		},
		{
			name:       "cat joins files with newline",
			files:      map[string]string{"/a": "one\n", "/b": "two\n"},
			line:       "cat a b",
			cwd:        "/",
			wantStdout: "one\n\ntwo\n",
		},
		{
			name:       "cat normalizes line endings",
			files:      map[string]string{"/crlf": "a\r\nb\rc"},
			line:       "cat crlf",
			cwd:        "/",
			wantStdout: "a\nb\nc",
		},
		{
			name:       "cat replaces invalid utf-8",
			files:      map[string]string{"/bin": "ok\xff"},
			line:       "cat bin",
			cwd:        "/",
			wantStdout: "ok�",
		},
		{
			name:       "head missing operand",
			line:       "head",
			cwd:        "/",
			wantStderr: "head: missing file operand\n",
			wantCode:   2,
		},
		{
			name:       "tail missing file",
			line:       "tail nope",
			cwd:        "/",
			wantStderr: "tail: nope: No such file or directory\n",
			wantCode:   1,
		},
		{
			name:       "echo",
			line:       `echo hello   "big world"`,
			cwd:        "/",
			wantStdout: "hello big world\n",
		},
		{
			name:       "echo nothing",
			line:       "echo",
			cwd:        "/",
			wantStdout: "\n",
		},
		{
			name:       "mv missing operands",
			line:       "mv a",
			cwd:        "/",
			wantStderr: "mv: missing file operands\n",
			wantCode:   2,
		},
		{
			name:       "mv missing source",
			files:      map[string]string{"/d/": ""},
			line:       "mv ghost d",
			cwd:        "/",
			wantStderr: "mv: cannot stat '/ghost': No such file or directory\n",
			wantCode:   1,
		},
		{
			name:       "cp only flag and source",
			files:      map[string]string{"/a": ""},
			line:       "cp -r a",
			cwd:        "/",
			wantStderr: "cp: missing destination file operand after source\n",
			wantCode:   2,
		},
		{
			name:       "cp directory without -r",
			files:      map[string]string{"/d/f": ""},
			line:       "cp d e",
			cwd:        "/",
			wantStderr: "cp: -r not specified; omitting directory '/d'\n",
			wantCode:   1,
		},
		{
			name:       "cp directory into itself",
			files:      map[string]string{"/d/sub/": ""},
			line:       "cp -r d d/sub",
			cwd:        "/",
			wantStderr: "cp: cannot copy a directory, '/d', into itself, '/d/sub/d'\n",
			wantCode:   1,
		},
		{
			name:       "cp directory onto a file",
			files:      map[string]string{"/d/f": "", "/file": "x"},
			line:       "cp -r d file",
			cwd:        "/",
			wantStderr: "cp: cannot copy '/d' into '/file': Not a directory\n",
			wantCode:   1,
		},
		{
			name:       "cp file onto itself",
			files:      map[string]string{"/w/f.txt": "keep"},
			line:       "cp f.txt f.txt",
			cwd:        "/w",
			wantStderr: "cp: '/w/f.txt' and '/w/f.txt' are the same file\n",
			wantCode:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExecutor(t, memFs(t, tt.files))
			res := run(t, x, tt.line, tt.cwd)

			wantCwd := tt.wantCwd
			if wantCwd == "" {
				wantCwd = tt.cwd
			}
			if res.Stdout != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", res.Stdout, tt.wantStdout)
			}
			if res.Stderr != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", res.Stderr, tt.wantStderr)
			}
			if res.Cwd != wantCwd {
				t.Errorf("cwd = %q, want %q", res.Cwd, wantCwd)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tt.wantCode)
			}
		})
	}
}

func numberedLines(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString(strings.Repeat("x", i))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestHeadTail(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/long":  numberedLines(15),
		"/short": "a\nb",
		"/empty": "",
	})
	x := newTestExecutor(t, fs)

	lines := strings.SplitAfter(numberedLines(15), "\n")
	assert.Equal(t, strings.Join(lines[:10], ""), run(t, x, "head long", "/").Stdout)
	assert.Equal(t, strings.Join(lines[5:15], ""), run(t, x, "tail long", "/").Stdout)

	assert.Equal(t, "a\nb", run(t, x, "head short", "/").Stdout)
	assert.Equal(t, "a\nb", run(t, x, "tail short", "/").Stdout)

	res := run(t, x, "head empty", "/")
	assert.Equal(t, "", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestEchoRedirect(t *testing.T) {
	fs := memFs(t, map[string]string{"/w/": ""})
	x := newTestExecutor(t, fs)

	require.Equal(t, 0, run(t, x, "echo first > log.txt", "/w").ExitCode)
	require.Equal(t, 0, run(t, x, "echo second >> log.txt", "/w").ExitCode)
	data, err := afero.ReadFile(fs, "/w/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	require.Equal(t, 0, run(t, x, "echo replaced > log.txt", "/w").ExitCode)
	data, err = afero.ReadFile(fs, "/w/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced\n", string(data))

	// Words after the target are dropped.
	require.Equal(t, 0, run(t, x, "echo a > f.txt b", "/w").ExitCode)
	data, err = afero.ReadFile(fs, "/w/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
}

func TestEchoRedirectError(t *testing.T) {
	x := newTestExecutor(t, afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))

	res := run(t, x, "echo hi > /missing/dir/f.txt", "/")
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.True(t, strings.HasPrefix(res.Stderr, "echo: redirection error: "), res.Stderr)
	assert.Empty(t, res.Stdout)
}

func TestTouch(t *testing.T) {
	fs := memFs(t, map[string]string{"/w/keep.txt": "content"})
	x := newTestExecutor(t, fs)

	res := run(t, x, "touch new.txt deep/nested/file.txt keep.txt", "/w")
	require.Equal(t, 0, res.ExitCode, res.Stderr)

	for _, path := range []string{"/w/new.txt", "/w/deep/nested/file.txt", "/w/keep.txt"} {
		info, err := fs.Stat(path)
		require.NoError(t, err, path)
		assert.True(t, info.ModTime().Equal(testNow), path)
	}

	data, err := afero.ReadFile(fs, "/w/keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data), "touch must not truncate")
}

func TestRmAndRmdir(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/w/file":     "x",
		"/w/tree/a/b": "y",
		"/w/empty/":   "",
	})
	x := newTestExecutor(t, fs)

	require.Equal(t, 0, run(t, x, "rm file", "/w").ExitCode)
	require.Equal(t, 0, run(t, x, "rm -r tree", "/w").ExitCode)
	require.Equal(t, 0, run(t, x, "rmdir empty", "/w").ExitCode)

	for _, path := range []string{"/w/file", "/w/tree", "/w/empty"} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, ok, path)
	}

	res := run(t, x, "rm -r", "/w")
	assert.Equal(t, "rm: missing path\n", res.Stderr)
	assert.Equal(t, ExitUsage, res.ExitCode)
}

func TestCp(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/w/a.txt":     "alpha",
		"/w/b.txt":     "beta",
		"/w/dir/":      "",
		"/w/src/x.txt": "x",
		"/w/into/":     "",
	})
	x := newTestExecutor(t, fs)

	// file to new name
	require.Equal(t, 0, run(t, x, "cp a.txt copy.txt", "/w").ExitCode)
	data, err := afero.ReadFile(fs, "/w/copy.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	// several files into a directory
	require.Equal(t, 0, run(t, x, "cp a.txt b.txt dir", "/w").ExitCode)
	for _, name := range []string{"a.txt", "b.txt"} {
		ok, err := afero.Exists(fs, filepath.Join("/w/dir", name))
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	// directory into an existing directory
	require.Equal(t, 0, run(t, x, "cp -r src into", "/w").ExitCode)
	data, err = afero.ReadFile(fs, "/w/into/src/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	// the same again conflicts
	res := run(t, x, "cp -r src into", "/w")
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.Equal(t, "cp: cannot create directory '/w/into/src': File exists\n", res.Stderr)

	// many sources onto a file
	res = run(t, x, "cp a.txt b.txt copy.txt", "/w")
	assert.Equal(t, "cp: target is not a directory\n", res.Stderr)

	// directory to a missing destination lands inside it
	require.Equal(t, 0, run(t, x, "cp -r src fresh", "/w").ExitCode)
	data, err = afero.ReadFile(fs, "/w/fresh/src/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestCpSameFile(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), root)
	require.NoError(t, afero.WriteFile(fs, "/w/f.txt", []byte("precious\n"), 0644))
	require.NoError(t, os.Link(filepath.Join(root, "w", "f.txt"), filepath.Join(root, "w", "link.txt")))
	x := newTestExecutor(t, fs)

	tests := []struct {
		line       string
		wantStderr string
	}{
		{"cp f.txt f.txt", "cp: '/w/f.txt' and '/w/f.txt' are the same file\n"},
		{"cp f.txt .", "cp: '/w/f.txt' and '/w/f.txt' are the same file\n"},
		{"cp f.txt /w/../w/f.txt", "cp: '/w/f.txt' and '/w/f.txt' are the same file\n"},
		{"cp f.txt link.txt", "cp: '/w/f.txt' and '/w/link.txt' are the same file\n"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := run(t, x, tt.line, "/w")
			assert.Equal(t, ExitFailure, res.ExitCode)
			assert.Equal(t, tt.wantStderr, res.Stderr)

			data, err := afero.ReadFile(fs, "/w/f.txt")
			require.NoError(t, err)
			assert.Equal(t, "precious\n", string(data))
		})
	}
}

func TestMv(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), root)
	require.NoError(t, fs.MkdirAll("/w/dir", 0755))
	require.NoError(t, fs.MkdirAll("/w/tree/sub", 0755))
	require.NoError(t, afero.WriteFile(fs, "/w/a.txt", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/w/b.txt", []byte("b"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/w/tree/sub/c.txt", []byte("c"), 0644))
	x := newTestExecutor(t, fs)

	// rename
	require.Equal(t, 0, run(t, x, "mv a.txt renamed.txt", "/w").ExitCode)
	data, err := afero.ReadFile(fs, "/w/renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	// several sources into a directory
	require.Equal(t, 0, run(t, x, "mv renamed.txt b.txt dir", "/w").ExitCode)
	for _, name := range []string{"renamed.txt", "b.txt"} {
		ok, err := afero.Exists(fs, filepath.Join("/w/dir", name))
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	// directory tree into a directory
	require.Equal(t, 0, run(t, x, "mv tree dir", "/w").ExitCode)
	data, err = afero.ReadFile(fs, "/w/dir/tree/sub/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
	ok, err := afero.Exists(fs, "/w/tree")
	require.NoError(t, err)
	assert.False(t, ok)

	// a directory does not replace a non-empty one
	require.NoError(t, fs.MkdirAll("/w/other/tree", 0755))
	require.NoError(t, afero.WriteFile(fs, "/w/other/tree/keep.txt", []byte("k"), 0644))
	require.NoError(t, fs.MkdirAll("/w/tree/new", 0755))
	res := run(t, x, "mv tree other", "/w")
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.Equal(t, "mv: cannot move '/w/tree' to '/w/other/tree': Directory not empty\n", res.Stderr)
	for _, path := range []string{"/w/tree/new", "/w/other/tree/keep.txt"} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, ok, path)
	}

	// a directory cannot move below itself
	res = run(t, x, "mv dir dir/tree", "/w")
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.Equal(t, "mv: cannot move '/w/dir' to a subdirectory of itself, '/w/dir/tree/dir'\n", res.Stderr)
	ok, err = afero.Exists(fs, "/w/dir/tree/sub/c.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}
