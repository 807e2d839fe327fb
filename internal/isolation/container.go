package isolation

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zeroshot/zeroshot/internal/log"
)

// containerName returns the docker container name used for a cluster's
// sandbox, mirroring maruel/caic's containerName convention of deriving a
// stable name from the owning id rather than generating a random one.
func containerName(clusterID string) string {
	return "zeroshot-" + clusterID
}

// dockerRunner shells out to the docker CLI the way maruel/caic's MD type
// shells out to the md CLI: exec.CommandContext, a working directory, and
// stderr captured into a buffer for error context. No Docker SDK is used so
// the isolation package has no client-library dependency beyond the CLI
// being on PATH.
type dockerRunner struct {
	clock Clock
}

func (d dockerRunner) run(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// createContainer provisions a long-running container sandbox for
// clusterID. It runs `docker run -d` with the container's working
// directory bind-mounted, retrying the run up to installRetryAttempts
// times with exponential backoff on failure (an image pull racing with a
// concurrent cluster start is the common transient cause). When retries
// are exhausted the returned error wraps ErrIsolationFailed;
// Supervisor.Start returns that error and does not fall back to KindNone.
func createContainer(ctx context.Context, clock Clock, clusterID string, opts ContainerOptions) (*ContainerInfo, error) {
	if clock == nil {
		clock = RealClock{}
	}
	name := containerName(clusterID)
	runner := dockerRunner{clock: clock}

	args := []string{
		"run", "-d",
		"--name", name,
		"-v", opts.WorkDir + ":" + opts.WorkDir,
		"-w", opts.WorkDir,
		opts.Image,
		"sleep", "infinity",
	}

	var lastErr error
	for attempt := 0; attempt < installRetryAttempts; attempt++ {
		id, err := runner.run(ctx, "", args...)
		if err == nil {
			return &ContainerInfo{
				ContainerID: id,
				Image:       opts.Image,
				WorkDir:     opts.WorkDir,
			}, nil
		}
		lastErr = err
		log.Debug(log.CatIsolation, "container start failed", "cluster", clusterID, "attempt", attempt+1, "err", err)
		_, _ = runner.run(ctx, "", "rm", "-f", name)
		if attempt < installRetryAttempts-1 {
			clock.Sleep(installRetryDelay(attempt))
		}
	}

	return nil, wrapFailed("create container", lastErr)
}

// cleanupContainer stops and removes the container. Idempotent: removing an
// already-gone container is treated as success.
func cleanupContainer(ctx context.Context, info *ContainerInfo) error {
	if info == nil {
		return nil
	}
	runner := dockerRunner{clock: RealClock{}}
	_, killErr := runner.run(ctx, "", "kill", info.ContainerID)
	_, rmErr := runner.run(ctx, "", "rm", "-f", info.ContainerID)
	if rmErr != nil && killErr != nil {
		log.Debug(log.CatIsolation, "container cleanup had no effect, assuming already removed", "container", info.ContainerID)
	}
	return nil
}

// hasContainer reports whether a container with this cluster's name is
// currently known to docker, regardless of running state.
func hasContainer(ctx context.Context, clusterID string) bool {
	runner := dockerRunner{clock: RealClock{}}
	out, err := runner.run(ctx, "", "inspect", "--format", "{{.Id}}", containerName(clusterID))
	return err == nil && out != ""
}
