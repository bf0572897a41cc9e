package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ContainerAPI is the subset of the Docker client used by DockerRunner.
type ContainerAPI interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// DockerRunner runs the delegate inside a container built from Image. The
// image entrypoint is expected to be the measurement tool itself.
type DockerRunner struct {
	Client ContainerAPI
	Image  string
	Logger *slog.Logger

	// isNotFound decides whether a create error means the image is missing.
	isNotFound func(error) bool
}

func NewDockerRunner(image string) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerRunner{Client: cli, Image: image, Logger: slog.Default()}, nil
}

func (r *DockerRunner) notFound(err error) bool {
	if r.isNotFound != nil {
		return r.isNotFound(err)
	}
	return client.IsErrNotFound(err)
}

func (r *DockerRunner) Run(ctx context.Context, req Request) (int, error) {
	cfg := &container.Config{
		Image:        r.Image,
		Cmd:          req.Args(),
		AttachStdout: true,
		AttachStderr: true,
	}

	created, err := r.Client.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, "")
	if err != nil && r.notFound(err) {
		if err := r.pull(ctx); err != nil {
			return 1, err
		}
		created, err = r.Client.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, "")
	}
	if err != nil {
		return 1, fmt.Errorf("create container: %w", err)
	}
	defer func() {
		if err := r.Client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true}); err != nil {
			r.logger().Warn("failed to remove container", "id", created.ID, "error", err)
		}
	}()

	if err := r.Client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return 1, fmt.Errorf("start container: %w", err)
	}
	r.logger().Debug("local delegate container started", "id", created.ID, "image", r.Image)

	logs, err := r.Client.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: true})
	if err != nil {
		return 1, fmt.Errorf("container logs: %w", err)
	}
	defer logs.Close()

	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if _, err := stdcopy.StdCopy(stdout, stderr, logs); err != nil {
		return 1, fmt.Errorf("copy container output: %w", err)
	}

	statusCh, errCh := r.Client.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 1, fmt.Errorf("wait for container: %w", err)
	case status := <-statusCh:
		if status.Error != nil {
			return 1, fmt.Errorf("wait for container: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	}
}

func (r *DockerRunner) pull(ctx context.Context) error {
	r.logger().Info("pulling image", "image", r.Image)
	rc, err := r.Client.ImagePull(ctx, r.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull %s: %w", r.Image, err)
	}
	defer rc.Close()
	// The pull only completes once the progress stream is drained.
	_, err = io.Copy(io.Discard, rc)
	return err
}

func (r *DockerRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
