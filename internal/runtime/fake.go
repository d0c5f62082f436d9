package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fake is an in-memory ContainerRuntime for tests. Errors can be injected
// per operation+resource through Fail.
type Fake struct {
	mu         sync.Mutex
	containers map[string]*FakeContainer
	volumes    map[string]map[string]string
	// Fail maps "op/name" (e.g. "start/ws-123") to an injected error.
	Fail map[string]error
	// Calls records each operation in order, for assertions.
	Calls []string
}

type FakeContainer struct {
	ID      string
	Name    string
	Running bool
	State   string
	Labels  map[string]string
}

func NewFake() *Fake {
	return &Fake{
		containers: make(map[string]*FakeContainer),
		volumes:    make(map[string]map[string]string),
		Fail:       make(map[string]error),
	}
}

func (f *Fake) failure(op, name string) error {
	if err, ok := f.Fail[op+"/"+name]; ok {
		return err
	}
	return nil
}

func (f *Fake) record(op, name string) {
	f.Calls = append(f.Calls, op+"/"+name)
}

// AddContainer seeds a container as if it already existed on the engine.
func (f *Fake) AddContainer(name string, running bool, labels map[string]string) *FakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := "exited"
	if running {
		state = "running"
	}
	c := &FakeContainer{
		ID:      uuid.New().String(),
		Name:    name,
		Running: running,
		State:   state,
		Labels:  labels,
	}
	f.containers[name] = c
	return c
}

// AddVolume seeds a volume.
func (f *Fake) AddVolume(name string, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes[name] = labels
}

// Container returns the live fake container by name, or nil.
func (f *Fake) Container(name string) *FakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.containers[name]
}

// HasVolume reports whether a volume exists.
func (f *Fake) HasVolume(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.volumes[name]
	return ok
}

func (f *Fake) CreateContainer(_ context.Context, spec ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create", spec.Name)
	if err := f.failure("create", spec.Name); err != nil {
		return "", err
	}
	if _, ok := f.containers[spec.Name]; ok {
		return "", fmt.Errorf("container %s already exists", spec.Name)
	}
	c := &FakeContainer{
		ID:     uuid.New().String(),
		Name:   spec.Name,
		State:  "created",
		Labels: spec.Labels,
	}
	f.containers[spec.Name] = c
	return c.ID, nil
}

func (f *Fake) StartContainer(_ context.Context, nameOrID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start", nameOrID)
	if err := f.failure("start", nameOrID); err != nil {
		return err
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return ErrNotExist
	}
	c.Running = true
	c.State = "running"
	return nil
}

func (f *Fake) StopContainer(_ context.Context, nameOrID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop", nameOrID)
	if err := f.failure("stop", nameOrID); err != nil {
		return err
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return ErrNotExist
	}
	c.Running = false
	c.State = "exited"
	return nil
}

func (f *Fake) RemoveContainer(_ context.Context, nameOrID string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove", nameOrID)
	if err := f.failure("remove", nameOrID); err != nil {
		return err
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return ErrNotExist
	}
	if c.Running && !force {
		return fmt.Errorf("container %s is running", nameOrID)
	}
	delete(f.containers, c.Name)
	return nil
}

func (f *Fake) InspectContainer(_ context.Context, nameOrID string) (ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("inspect", nameOrID)
	if err := f.failure("inspect", nameOrID); err != nil {
		return ContainerInfo{}, err
	}
	c := f.lookup(nameOrID)
	if c == nil {
		return ContainerInfo{}, ErrNotExist
	}
	return ContainerInfo{ID: c.ID, Name: c.Name, State: c.State, Running: c.Running, Labels: c.Labels}, nil
}

func (f *Fake) ListContainers(_ context.Context, labels map[string]string) ([]ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list-containers", "")
	var infos []ContainerInfo
	for _, c := range f.containers {
		if !labelsMatch(c.Labels, labels) {
			continue
		}
		infos = append(infos, ContainerInfo{ID: c.ID, Name: c.Name, State: c.State, Running: c.Running, Labels: c.Labels})
	}
	return infos, nil
}

func (f *Fake) CreateVolume(_ context.Context, name string, labels map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create-volume", name)
	if err := f.failure("create-volume", name); err != nil {
		return err
	}
	f.volumes[name] = labels
	return nil
}

func (f *Fake) RemoveVolume(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove-volume", name)
	if err := f.failure("remove-volume", name); err != nil {
		return err
	}
	if _, ok := f.volumes[name]; !ok {
		return ErrNotExist
	}
	delete(f.volumes, name)
	return nil
}

func (f *Fake) ListVolumes(_ context.Context, labels map[string]string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list-volumes", "")
	var names []string
	for name, vl := range f.volumes {
		if labelsMatch(vl, labels) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *Fake) CopyVolume(_ context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("copy-volume", src+"->"+dst)
	if err := f.failure("copy-volume", src+"->"+dst); err != nil {
		return err
	}
	if _, ok := f.volumes[src]; !ok {
		return ErrNotExist
	}
	if _, ok := f.volumes[dst]; !ok {
		return ErrNotExist
	}
	return nil
}

func (f *Fake) lookup(nameOrID string) *FakeContainer {
	if c, ok := f.containers[nameOrID]; ok {
		return c
	}
	for _, c := range f.containers {
		if c.ID == nameOrID {
			return c
		}
	}
	return nil
}

func labelsMatch(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
