//go:build integration || e2e

package testinfra

import (
	"context"
	"os/exec"
	"time"
)

// IsDockerAvailable reports whether `docker info` succeeds. Test mains use it
// to skip container-backed suites on machines without Docker.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}
