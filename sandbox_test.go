package sandsh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFsMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FsMode
		wantErr bool
	}{
		{"", FsModeOS, false},
		{"os", FsModeOS, false},
		{"jail", FsModeJail, false},
		{"overlay", FsModeOverlay, false},
		{"memory", FsModeMemory, false},
		{"chroot", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFsMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewSandboxFs_Jail(t *testing.T) {
	root := t.TempDir()
	fs, err := NewSandboxFs(FsModeJail, root)
	require.NoError(t, err)

	x := newTestExecutor(t, fs)
	require.NoError(t, PrepareDirs(fs, "/work"))

	res := run(t, x, "echo inside > note.txt", "/work")
	require.Equal(t, 0, res.ExitCode, res.Stderr)

	data, err := os.ReadFile(filepath.Join(root, "work", "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inside\n", string(data))

	// ".." cannot climb out of the jail.
	res = run(t, x, "cd ../../..", "/work")
	assert.Equal(t, "/", res.Cwd)
	res = run(t, x, "ls", "/")
	assert.Equal(t, "work\n", res.Stdout)
}

func TestNewSandboxFs_Overlay(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "base.txt"), []byte("from disk\n"), 0644))

	fs, err := NewSandboxFs(FsModeOverlay, root)
	require.NoError(t, err)
	x := newTestExecutor(t, fs)

	assert.Equal(t, "from disk\n", run(t, x, "cat base.txt", "/").Stdout)

	res := run(t, x, "echo scratch > new.txt", "/")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Equal(t, "scratch\n", run(t, x, "cat new.txt", "/").Stdout)

	_, err = os.Stat(filepath.Join(root, "new.txt"))
	assert.True(t, os.IsNotExist(err), "overlay writes must stay in memory")
}

func TestNewSandboxFs_Errors(t *testing.T) {
	_, err := NewSandboxFs(FsModeJail, "")
	assert.Error(t, err)

	_, err = NewSandboxFs(FsModeOverlay, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewSandboxFs(FsModeJail, file)
	assert.Error(t, err)

	_, err = NewSandboxFs(FsMode("bogus"), "")
	assert.Error(t, err)
}

func TestNewSandboxFs_Memory(t *testing.T) {
	fs, err := NewSandboxFs(FsModeMemory, "")
	require.NoError(t, err)
	_, ok := fs.(*afero.MemMapFs)
	assert.True(t, ok)
}

func TestPrepareDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, PrepareDirs(fs, "/tmp", "", "/home/u/projects"))

	for _, dir := range []string{"/tmp", "/home/u/projects"} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}
}
