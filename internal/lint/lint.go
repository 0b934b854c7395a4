// Package lint runs the project's style checker and reduces its result to a
// pass/fail exit code.
package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExitNotStarted is reported when the checker binary could not be run at all.
const ExitNotStarted = 127

type Options struct {
	// Dir is the project directory the checker runs in.
	Dir string
	// BinDir holds project-local tools; relative paths resolve against Dir.
	BinDir string
	// Command is the checker command line, split on whitespace.
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
}

// ExitCode maps the checker's exit code to the wrapper's: zero stays zero,
// anything else becomes 1.
func ExitCode(checker int) int {
	if checker != 0 {
		return 1
	}
	return 0
}

// Run executes the checker and returns its raw exit code. The error is non-nil
// only when the command could not be started or is empty.
func Run(ctx context.Context, opts Options) (int, error) {
	args := strings.Fields(opts.Command)
	if len(args) == 0 {
		return ExitNotStarted, errors.New("lint command is empty")
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return ExitNotStarted, fmt.Errorf("resolve lint dir: %w", err)
	}

	env := os.Environ()
	name := args[0]
	if opts.BinDir != "" {
		bin := opts.BinDir
		if !filepath.IsAbs(bin) {
			bin = filepath.Join(dir, bin)
		}
		env = withPathPrefix(env, bin)
		name = lookInDir(bin, name)
	}

	cmd := exec.CommandContext(ctx, name, args[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = orDiscard(opts.Stdout)
	cmd.Stderr = orDiscard(opts.Stderr)

	slog.Info("Running style checker", "dir", dir, "command", opts.Command)

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return ExitNotStarted, fmt.Errorf("start %s: %w", args[0], err)
	}
}

// lookInDir returns the path of an executable called name inside dir, or name
// unchanged so the usual PATH lookup applies. exec resolves bare names against
// this process's PATH, not the child's environment.
func lookInDir(dir, name string) string {
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	candidate := filepath.Join(dir, name)
	if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() && fi.Mode()&0o111 != 0 {
		return candidate
	}
	return name
}

// withPathPrefix returns env with dir placed first on PATH.
func withPathPrefix(env []string, dir string) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			found = true
			if v == "" {
				kv = "PATH=" + dir
			} else {
				kv = "PATH=" + dir + string(os.PathListSeparator) + v
			}
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+dir)
	}
	return out
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
