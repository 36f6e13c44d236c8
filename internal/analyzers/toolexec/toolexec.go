// Package toolexec runs external analysis tools over in-memory file content.
package toolexec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Tomas-vilte/MateReview/internal/logger"
)

// Run writes content to a temp file carrying the original extension, invokes
// command with the extra args plus the temp path, and returns stdout. Lint
// tools exit non-zero when they find problems, so a non-zero exit with
// output is a normal result; only an empty-output failure is an error.
func Run(ctx context.Context, command string, args []string, fileName, content string) (string, error) {
	tmpFile, err := os.CreateTemp("", "matereview-*"+filepath.Ext(fileName))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(tmpFile.Name()); err != nil {
			return
		}
	}()

	if _, err := tmpFile.WriteString(content); err != nil {
		_ = tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	cmdArgs := append(append([]string{}, args...), tmpFile.Name())
	cmd := exec.CommandContext(ctx, command, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil && stdout.Len() == 0 {
		logger.Debug(ctx, "analysis tool produced no output",
			"command", command, "stderr", stderr.String(), "error", runErr)
		return "", runErr
	}
	return stdout.String(), nil
}

// Available reports whether the tool can be found on PATH.
func Available(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
