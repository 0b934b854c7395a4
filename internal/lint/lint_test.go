package lint

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(0))
	for _, code := range []int{1, 2, 3, 42, 125, 126, 127, 128, 255, -1} {
		require.Equal(t, 1, ExitCode(code), "checker exit %d", code)
	}
}

func TestWithPathPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)

	got := withPathPrefix([]string{"HOME=/root", "PATH=/usr/bin"}, "/proj/bin")
	require.Equal(t, []string{"HOME=/root", "PATH=/proj/bin" + sep + "/usr/bin"}, got)

	got = withPathPrefix([]string{"HOME=/root"}, "/proj/bin")
	require.Equal(t, []string{"HOME=/root", "PATH=/proj/bin"}, got)
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available")
	}
}

// writeTool drops an executable script named name into dir/bin.
func writeTool(t *testing.T, dir, name, body string) {
	t.Helper()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func TestRun(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	t.Run("passes through checker exit codes", func(t *testing.T) {
		for _, code := range []string{"0", "1", "2", "7"} {
			dir := t.TempDir()
			writeTool(t, dir, "checker", "exit "+code)

			got, err := Run(ctx, Options{Dir: dir, BinDir: "bin", Command: "checker ./..."})
			require.NoError(t, err)
			require.Equal(t, code, strconv.Itoa(got))
			if code == "0" {
				require.Equal(t, 0, ExitCode(got))
			} else {
				require.Equal(t, 1, ExitCode(got))
			}
		}
	})

	t.Run("runs inside the project dir with tools on PATH", func(t *testing.T) {
		dir := t.TempDir()
		writeTool(t, dir, "checker", `pwd; echo "$@"`)

		var out bytes.Buffer
		got, err := Run(ctx, Options{Dir: dir, BinDir: "bin", Command: "checker --max-line-length 120", Stdout: &out})
		require.NoError(t, err)
		require.Equal(t, 0, got)

		resolved, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		wd, err := filepath.EvalSymlinks(lines[0])
		require.NoError(t, err)
		require.Equal(t, resolved, wd)
		require.Equal(t, "--max-line-length 120", lines[1])
	})

	t.Run("missing checker", func(t *testing.T) {
		got, err := Run(ctx, Options{Dir: t.TempDir(), BinDir: "bin", Command: "definitely-not-a-real-checker-xyz"})
		require.Error(t, err)
		require.Equal(t, ExitNotStarted, got)
		require.Equal(t, 1, ExitCode(got))
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := Run(ctx, Options{Dir: t.TempDir(), Command: "  "})
		require.Error(t, err)
	})
}
