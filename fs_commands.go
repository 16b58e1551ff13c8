package sandsh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
)

// stat follows symlinks. Any stat failure counts as the path not existing.
func (x *Executor) stat(path string) (os.FileInfo, bool) {
	info, err := x.fs.Stat(path)
	if err != nil {
		return nil, false
	}
	return info, true
}

func (x *Executor) isDir(path string) bool {
	info, ok := x.stat(path)
	return ok && info.IsDir()
}

// cmdPwd implements the pwd command
func cmdPwd(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	return output(cwd+"\n", cwd)
}

// cmdLs implements the ls command
func cmdLs(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	target := cwd
	long := false
	if len(args) > 0 {
		if args[0] == "-l" {
			long = true
			if len(args) > 1 {
				target = ResolvePath(args[1], cwd)
			}
		} else {
			target = ResolvePath(args[0], cwd)
		}
	}

	info, ok := x.stat(target)
	if !ok {
		return Result{}, &CommandError{
			Kind:    KindNotFound,
			Code:    ExitUsage,
			Message: fmt.Sprintf("ls: cannot access '%s': No such file or directory", target),
		}
	}
	if !info.IsDir() {
		return output(filepath.Base(target)+"\n", cwd)
	}

	entries, err := afero.ReadDir(x.fs, target)
	if err != nil {
		return Result{}, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if !long {
		names := make([]string, len(entries))
		for i, entry := range entries {
			names[i] = entry.Name()
		}
		return output(strings.Join(names, "  ")+"\n", cwd)
	}

	var sb strings.Builder
	for _, entry := range entries {
		size := entry.Size()
		// Report the size of what a symlink points at.
		if fi, ok := x.stat(filepath.Join(target, entry.Name())); ok {
			size = fi.Size()
		}
		fmt.Fprintf(&sb, "%8d %s\n", size, entry.Name())
	}
	return output(sb.String(), cwd)
}

// cmdCd implements the cd command
func cmdCd(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	shown := x.home
	if len(args) > 0 {
		shown = args[0]
	}
	dir := ResolvePath(shown, cwd)

	info, ok := x.stat(dir)
	if !ok {
		return Result{}, notFoundError("cd: %s: No such file or directory", shown)
	}
	if !info.IsDir() {
		return Result{}, typeMismatchError("cd: %s: Not a directory", shown)
	}
	return Result{Cwd: dir}, nil
}

// cmdMkdir implements the mkdir command. Parents are always created, so -p
// is accepted and ignored.
func cmdMkdir(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "-p" {
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		return Result{}, usageError("mkdir: missing operand")
	}

	for _, arg := range paths {
		path := ResolvePath(arg, cwd)
		if _, exists := x.stat(path); exists {
			return Result{}, conflictError("mkdir: cannot create directory '%s': File exists", arg)
		}
		if err := x.fs.MkdirAll(path, 0755); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// cmdRm implements the rm command
func cmdRm(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) == 0 {
		return Result{}, usageError("rm: missing operand")
	}

	recursive := false
	paths := []string{}
	for _, arg := range args {
		switch arg {
		case "-r", "-rf", "-fr":
			recursive = true
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		return Result{}, usageError("rm: missing path")
	}

	for _, arg := range paths {
		path := ResolvePath(arg, cwd)
		info, ok := x.stat(path)
		if !ok {
			return Result{}, notFoundError("rm: cannot remove '%s': No such file or directory", arg)
		}
		if info.IsDir() {
			if !recursive {
				return Result{}, typeMismatchError("rm: cannot remove '%s': Is a directory", arg)
			}
			if err := x.fs.RemoveAll(path); err != nil {
				return Result{}, err
			}
			continue
		}
		if err := x.fs.Remove(path); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// cmdRmdir implements the rmdir command
func cmdRmdir(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) == 0 {
		return Result{}, usageError("rmdir: missing operand")
	}

	for _, arg := range args {
		path := ResolvePath(arg, cwd)
		info, ok := x.stat(path)
		if !ok {
			return Result{}, notFoundError("rmdir: failed to remove '%s': No such file or directory", arg)
		}
		if !info.IsDir() {
			return Result{}, typeMismatchError("rmdir: failed to remove '%s': Not a directory", arg)
		}
		empty, err := afero.IsEmpty(x.fs, path)
		if err != nil {
			return Result{}, err
		}
		if !empty {
			return Result{}, conflictError("rmdir: failed to remove '%s': Directory not empty", arg)
		}
		if err := x.fs.Remove(path); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// cmdCat implements the cat command. File contents are joined by a newline.
func cmdCat(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) == 0 {
		return Result{}, usageError("cat: missing file operand")
	}

	contents := make([]string, 0, len(args))
	for _, arg := range args {
		text, err := x.readText("cat", arg, cwd)
		if err != nil {
			return Result{}, err
		}
		contents = append(contents, text)
	}
	return output(strings.Join(contents, "\n"), cwd)
}

// cmdHead implements the head command
func cmdHead(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	lines, err := x.readLines("head", args, cwd)
	if err != nil {
		return Result{}, err
	}
	return output(strings.Join(lines[:min(10, len(lines))], ""), cwd)
}

// cmdTail implements the tail command
func cmdTail(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	lines, err := x.readLines("tail", args, cwd)
	if err != nil {
		return Result{}, err
	}
	return output(strings.Join(lines[max(0, len(lines)-10):], ""), cwd)
}

// readLines reads the first argument as text and splits it into lines that
// keep their terminators.
func (x *Executor) readLines(name string, args []string, cwd string) ([]string, error) {
	if len(args) == 0 {
		return nil, usageError("%s: missing file operand", name)
	}
	text, err := x.readText(name, args[0], cwd)
	if err != nil {
		return nil, err
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// readText reads a regular file as UTF-8 text. Invalid bytes become U+FFFD
// and line endings are normalized to "\n".
func (x *Executor) readText(name, arg, cwd string) (string, error) {
	path := ResolvePath(arg, cwd)
	info, ok := x.stat(path)
	if !ok {
		return "", notFoundError("%s: %s: No such file or directory", name, arg)
	}
	if info.IsDir() {
		return "", typeMismatchError("%s: %s: Is a directory", name, arg)
	}

	data, err := afero.ReadFile(x.fs, path)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	text, err := unicode.UTF8.NewDecoder().String(string(data))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// cmdTouch implements the touch command. Missing parent directories are
// created.
func cmdTouch(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) == 0 {
		return Result{}, usageError("touch: missing file operand")
	}

	for _, arg := range args {
		path := ResolvePath(arg, cwd)
		if dir := filepath.Dir(path); !x.isDir(dir) {
			if err := x.fs.MkdirAll(dir, 0755); err != nil {
				return Result{}, err
			}
		}

		file, err := x.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return Result{}, err
		}
		file.Close()

		now := x.now()
		if err := x.fs.Chtimes(path, now, now); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// cmdEcho implements the echo command, including "> file" and ">> file".
func cmdEcho(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	for _, redir := range []struct {
		op   string
		flag int
	}{
		{">", os.O_TRUNC},
		{">>", os.O_APPEND},
	} {
		for i, arg := range args {
			if arg == redir.op {
				return x.echoTo(args[:i], args[i+1:], redir.flag, cwd)
			}
		}
	}
	return output(strings.Join(args, " ")+"\n", cwd)
}

func (x *Executor) echoTo(words, rest []string, flag int, cwd string) (Result, error) {
	if len(rest) == 0 {
		return Result{}, redirectionError(fmt.Errorf("missing file operand"))
	}

	path := ResolvePath(rest[0], cwd)
	file, err := x.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, 0644)
	if err != nil {
		return Result{}, redirectionError(err)
	}
	_, err = io.WriteString(file, strings.Join(words, " ")+"\n")
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, redirectionError(err)
	}
	return output("", cwd)
}

func redirectionError(err error) error {
	return &CommandError{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("echo: redirection error: %v", err),
	}
}

// cmdMv implements the mv command
func cmdMv(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) < 2 {
		return Result{}, usageError("mv: missing file operands")
	}

	sources := make([]string, len(args)-1)
	for i, arg := range args[:len(args)-1] {
		sources[i] = ResolvePath(arg, cwd)
	}
	dest := ResolvePath(args[len(args)-1], cwd)

	if len(sources) > 1 && !x.isDir(dest) {
		return Result{}, typeMismatchError("mv: target is not a directory")
	}

	for _, src := range sources {
		if _, ok := x.stat(src); !ok {
			return Result{}, notFoundError("mv: cannot stat '%s': No such file or directory", src)
		}
		target := dest
		if x.isDir(dest) {
			target = filepath.Join(dest, filepath.Base(src))
		}
		if err := x.move(src, target); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// move renames src to dest, copying and removing when a rename is not
// possible (for example across devices).
func (x *Executor) move(src, dest string) error {
	if src == dest {
		return nil
	}
	info, err := x.fs.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if strings.HasPrefix(dest, src+string(filepath.Separator)) {
			return conflictError("mv: cannot move '%s' to a subdirectory of itself, '%s'", src, dest)
		}
		if x.isDir(dest) {
			if empty, err := afero.IsEmpty(x.fs, dest); err != nil || !empty {
				return conflictError("mv: cannot move '%s' to '%s': Directory not empty", src, dest)
			}
		}
	}

	renameErr := x.fs.Rename(src, dest)
	if renameErr == nil {
		return nil
	}

	if info.IsDir() {
		err = x.copyDir(src, dest)
	} else {
		err = x.copyFile(src, dest, info)
	}
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	return x.fs.RemoveAll(src)
}

// cmdCp implements the cp command
func cmdCp(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) < 2 {
		return Result{}, usageError("cp: missing file operands")
	}

	recursive := false
	files := []string{}
	for _, arg := range args {
		if arg == "-r" {
			recursive = true
		} else {
			files = append(files, arg)
		}
	}
	if len(files) < 2 {
		return Result{}, usageError("cp: missing destination file operand after source")
	}

	sources := make([]string, len(files)-1)
	for i, arg := range files[:len(files)-1] {
		sources[i] = ResolvePath(arg, cwd)
	}
	dest := ResolvePath(files[len(files)-1], cwd)

	if len(sources) > 1 && !x.isDir(dest) {
		return Result{}, typeMismatchError("cp: target is not a directory")
	}

	for _, src := range sources {
		info, ok := x.stat(src)
		if !ok {
			return Result{}, notFoundError("cp: cannot stat '%s': No such file or directory", src)
		}

		if !info.IsDir() {
			target := dest
			if x.isDir(dest) {
				target = filepath.Join(dest, filepath.Base(src))
			}
			if x.sameFile(src, target, info) {
				return Result{}, conflictError("cp: '%s' and '%s' are the same file", src, target)
			}
			if err := x.copyFile(src, target, info); err != nil {
				return Result{}, err
			}
			continue
		}

		if !recursive {
			return Result{}, typeMismatchError("cp: -r not specified; omitting directory '%s'", src)
		}
		// Directories always land inside dest, which is created if missing.
		if destInfo, ok := x.stat(dest); ok && !destInfo.IsDir() {
			return Result{}, typeMismatchError("cp: cannot copy '%s' into '%s': Not a directory", src, dest)
		}
		target := filepath.Join(dest, filepath.Base(src))
		if target == src || strings.HasPrefix(target, src+string(filepath.Separator)) {
			return Result{}, conflictError("cp: cannot copy a directory, '%s', into itself, '%s'", src, target)
		}
		if _, exists := x.stat(target); exists {
			return Result{}, conflictError("cp: cannot create directory '%s': File exists", target)
		}
		if err := x.copyDir(src, target); err != nil {
			return Result{}, err
		}
	}
	return output("", cwd)
}

// sameFile reports whether target names the file src, directly or through a
// hard link.
func (x *Executor) sameFile(src, target string, srcInfo os.FileInfo) bool {
	if src == target {
		return true
	}
	targetInfo, ok := x.stat(target)
	return ok && os.SameFile(srcInfo, targetInfo)
}

// copyFile copies a single file, keeping its permissions and modification time.
func (x *Executor) copyFile(src, dest string, srcInfo os.FileInfo) error {
	srcFile, err := x.fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	destFile, err := x.fs.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(destFile, srcFile)
	destFile.Close() // Close explicitly before Chtimes
	if err != nil {
		return err
	}

	return x.fs.Chtimes(dest, srcInfo.ModTime(), srcInfo.ModTime())
}

// copyDir copies a directory tree. dest must not exist yet.
func (x *Executor) copyDir(src, dest string) error {
	srcInfo, err := x.fs.Stat(src)
	if err != nil {
		return err
	}

	if err := x.fs.MkdirAll(dest, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := afero.ReadDir(x.fs, src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		info, err := x.fs.Stat(srcPath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			err = x.copyDir(srcPath, destPath)
		} else {
			err = x.copyFile(srcPath, destPath, info)
		}
		if err != nil {
			return err
		}
	}

	return x.fs.Chtimes(dest, srcInfo.ModTime(), srcInfo.ModTime())
}
