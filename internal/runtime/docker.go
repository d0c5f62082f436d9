package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
)

// Docker implements ContainerRuntime against a Docker engine endpoint.
// Images are expected to be present on the engine already; this service
// manages lifecycle only, not builds or pulls.
type Docker struct {
	cli          *client.Client
	callTimeout  time.Duration
	copyTimeout  time.Duration
	utilityImage string
}

func NewDocker(host string, callTimeout, copyTimeout time.Duration, utilityImage string) (*Docker, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Docker{
		cli:          cli,
		callTimeout:  callTimeout,
		copyTimeout:  copyTimeout,
		utilityImage: utilityImage,
	}, nil
}

func (d *Docker) Close() error {
	return d.cli.Close()
}

func (d *Docker) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	port := nat.Port(fmt.Sprintf("%d/tcp", spec.Port))
	cfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		Cmd:          spec.Cmd,
		Labels:       spec.Labels,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	host := &container.HostConfig{
		Resources: container.Resources{
			Memory:    spec.MemoryLimitMB * units.MiB,
			CPUShares: spec.CPUShares,
		},
	}
	if spec.Network != "" {
		host.NetworkMode = container.NetworkMode(spec.Network)
	}
	if spec.VolumeName != "" {
		host.Mounts = []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: spec.VolumeName,
			Target: spec.MountPath,
		}}
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, host, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("create container %s: %w", spec.Name, err)
	}
	return resp.ID, nil
}

func (d *Docker) StartContainer(ctx context.Context, nameOrID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	if err := d.cli.ContainerStart(ctx, nameOrID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", nameOrID, err)
	}
	return nil
}

func (d *Docker) StopContainer(ctx context.Context, nameOrID string, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout+grace)
	defer cancel()

	secs := int(grace.Seconds())
	err := d.cli.ContainerStop(ctx, nameOrID, container.StopOptions{Timeout: &secs})
	if err != nil {
		if client.IsErrNotFound(err) {
			return ErrNotExist
		}
		return fmt.Errorf("stop container %s: %w", nameOrID, err)
	}
	return nil
}

func (d *Docker) RemoveContainer(ctx context.Context, nameOrID string, force bool) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	err := d.cli.ContainerRemove(ctx, nameOrID, container.RemoveOptions{Force: force})
	if err != nil {
		if client.IsErrNotFound(err) {
			return ErrNotExist
		}
		return fmt.Errorf("remove container %s: %w", nameOrID, err)
	}
	return nil
}

func (d *Docker) InspectContainer(ctx context.Context, nameOrID string) (ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	resp, err := d.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return ContainerInfo{}, ErrNotExist
		}
		return ContainerInfo{}, fmt.Errorf("inspect container %s: %w", nameOrID, err)
	}
	return ContainerInfo{
		ID:      resp.ID,
		Name:    strings.TrimPrefix(resp.Name, "/"),
		State:   resp.State.Status,
		Running: resp.State.Running,
		Labels:  resp.Config.Labels,
	}, nil
}

func (d *Docker) ListContainers(ctx context.Context, labels map[string]string) ([]ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	args := filters.NewArgs()
	for k, v := range labels {
		args.Add("label", k+"="+v)
	}
	summaries, err := d.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	infos := make([]ContainerInfo, 0, len(summaries))
	for _, s := range summaries {
		name := ""
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		infos = append(infos, ContainerInfo{
			ID:      s.ID,
			Name:    name,
			State:   s.State,
			Running: s.State == "running",
			Labels:  s.Labels,
		})
	}
	return infos, nil
}

func (d *Docker) CreateVolume(ctx context.Context, name string, labels map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	_, err := d.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name, Labels: labels})
	if err != nil {
		return fmt.Errorf("create volume %s: %w", name, err)
	}
	return nil
}

func (d *Docker) RemoveVolume(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	if err := d.cli.VolumeRemove(ctx, name, true); err != nil {
		if client.IsErrNotFound(err) {
			return ErrNotExist
		}
		return fmt.Errorf("remove volume %s: %w", name, err)
	}
	return nil
}

func (d *Docker) ListVolumes(ctx context.Context, labels map[string]string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	args := filters.NewArgs()
	for k, v := range labels {
		args.Add("label", k+"="+v)
	}
	resp, err := d.cli.VolumeList(ctx, volume.ListOptions{Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}

	names := make([]string, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		names = append(names, v.Name)
	}
	return names, nil
}

// CopyVolume runs a short-lived utility container that mounts src
// read-only and dst read-write and copies the tree across. The helper is
// deliberately unlabeled so the orphan sweep cannot kill it mid-copy; it
// is force-removed here on every path.
func (d *Docker) CopyVolume(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, d.copyTimeout)
	defer cancel()

	// Mounting a missing named volume would silently create it empty;
	// verify the source is real first.
	if _, err := d.cli.VolumeInspect(ctx, src); err != nil {
		if client.IsErrNotFound(err) {
			return ErrNotExist
		}
		return fmt.Errorf("inspect volume %s: %w", src, err)
	}

	cfg := &container.Config{
		Image: d.utilityImage,
		Cmd:   []string{"sh", "-c", "cp -a /from/. /to/"},
	}
	host := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeVolume, Source: src, Target: "/from", ReadOnly: true},
			{Type: mount.TypeVolume, Source: dst, Target: "/to"},
		},
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, host, nil, nil, "")
	if err != nil {
		return fmt.Errorf("create copy helper: %w", err)
	}
	defer func() {
		rmCtx, rmCancel := context.WithTimeout(context.Background(), d.callTimeout)
		defer rmCancel()
		_ = d.cli.ContainerRemove(rmCtx, resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start copy helper: %w", err)
	}

	waitCh, errCh := d.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("copy %s -> %s: helper exited with code %d", src, dst, status.StatusCode)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	case <-ctx.Done():
		return fmt.Errorf("copy %s -> %s: %w", src, dst, ctx.Err())
	}
}
