package core

import "fmt"

type WorkspaceType string

const (
	TypeVSCode   WorkspaceType = "vscode"
	TypeJupyter  WorkspaceType = "jupyter"
	TypeTerminal WorkspaceType = "terminal"
)

// WorkspaceConfig is the per-type container configuration. The schema is
// shared across types; DefaultConfig pins the concrete values for each.
type WorkspaceConfig struct {
	Image         string `json:"image"`
	Port          int    `json:"port"`
	MemoryLimitMB int64  `json:"memory_limit_mb"`
	CPUShares     int64  `json:"cpu_shares"`
}

var typeDefaults = map[WorkspaceType]WorkspaceConfig{
	TypeVSCode: {
		Image:         "codercom/code-server:latest",
		Port:          8080,
		MemoryLimitMB: 2048,
		CPUShares:     1024,
	},
	TypeJupyter: {
		Image:         "jupyter/base-notebook:latest",
		Port:          8888,
		MemoryLimitMB: 2048,
		CPUShares:     1024,
	},
	TypeTerminal: {
		Image:         "alpine:3.20",
		Port:          7681,
		MemoryLimitMB: 512,
		CPUShares:     512,
	},
}

// WorkspaceTypes returns the closed set of known workspace types.
func WorkspaceTypes() []WorkspaceType {
	return []WorkspaceType{TypeVSCode, TypeJupyter, TypeTerminal}
}

// DefaultConfig returns the default configuration for a workspace type.
// Unknown types are rejected at creation time.
func DefaultConfig(t WorkspaceType) (WorkspaceConfig, error) {
	cfg, ok := typeDefaults[t]
	if !ok {
		return WorkspaceConfig{}, NewAppError(ErrBadRequest, fmt.Sprintf("unknown workspace type %q", t))
	}
	return cfg, nil
}

// MergeConfig overlays non-zero caller fields on the type defaults.
func MergeConfig(t WorkspaceType, override WorkspaceConfig) (WorkspaceConfig, error) {
	cfg, err := DefaultConfig(t)
	if err != nil {
		return WorkspaceConfig{}, err
	}
	if override.Image != "" {
		cfg.Image = override.Image
	}
	if override.Port > 0 {
		cfg.Port = override.Port
	}
	if override.MemoryLimitMB > 0 {
		cfg.MemoryLimitMB = override.MemoryLimitMB
	}
	if override.CPUShares > 0 {
		cfg.CPUShares = override.CPUShares
	}
	return cfg, nil
}
