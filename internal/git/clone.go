package git

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	dserrors "github.com/agusespa/diffscope/internal/errors"
	"github.com/agusespa/diffscope/internal/logging"
)

// CloneTemp clones url into a fresh temporary directory and returns its
// path together with a cleanup that removes it. Cleanup is safe to call
// even when the clone failed.
func CloneTemp(ctx context.Context, url string, log *logging.Logger) (string, func(), error) {
	dir, err := os.MkdirTemp("", "diffscope-")
	if err != nil {
		return "", func() {}, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "creating clone directory")
	}
	cleanup := func() { os.RemoveAll(dir) }

	log.Info("cloning repository", map[string]any{"url": url, "dir": dir})
	start := time.Now()

	cmd := exec.CommandContext(ctx, "git", "clone", url, dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = err.Error()
		}
		return "", func() {}, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "cloning %s: %s", url, msg)
	}

	log.Info("clone finished", map[string]any{
		"url":      url,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	return dir, cleanup, nil
}
