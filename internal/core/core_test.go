package core

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig(TypeVSCode)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}

	if _, err := DefaultConfig("emacs"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestMergeConfig(t *testing.T) {
	cfg, err := MergeConfig(TypeJupyter, WorkspaceConfig{Port: 9999})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected override port 9999, got %d", cfg.Port)
	}
	if cfg.Image != "jupyter/base-notebook:latest" {
		t.Errorf("expected default image, got %s", cfg.Image)
	}
}

func TestResourceNaming(t *testing.T) {
	if got := ContainerNameFor("abc"); got != "ws-abc" {
		t.Errorf("container name: got %s", got)
	}
	if got := VolumeNameFor("abc"); got != "wsvol-abc" {
		t.Errorf("volume name: got %s", got)
	}
	if got := BackupVolumeName("abc", "b1"); got != "wsvol-abc-backup-b1" {
		t.Errorf("backup volume name: got %s", got)
	}
	// Same id must always yield the same names.
	if ContainerNameFor("abc") != ContainerNameFor("abc") {
		t.Error("container naming is not deterministic")
	}
}

func TestProjectCompatibleWith(t *testing.T) {
	p := &Project{ID: "p1", UserID: "u1"}
	if !p.CompatibleWith(TypeVSCode) {
		t.Error("unset workspace type must be compatible with any type")
	}
	wt := TypeJupyter
	p.WorkspaceType = &wt
	if p.CompatibleWith(TypeVSCode) {
		t.Error("jupyter project must not be compatible with vscode")
	}
	if !p.CompatibleWith(TypeJupyter) {
		t.Error("jupyter project must be compatible with jupyter")
	}
}

func TestErrorHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrBadRequest:  400,
		ErrNotFound:    404,
		ErrConflict:    409,
		ErrRuntime:     502,
		ErrUnavailable: 503,
		ErrInternal:    500,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}
