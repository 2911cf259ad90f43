package instance

import (
	"testing"
)

func TestLock_Exclusive(t *testing.T) {
	tmpDir := t.TempDir()

	fl, err := Lock(tmpDir)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}

	if _, err := Lock(tmpDir); err == nil {
		t.Error("expected second lock on the same target to fail")
	}

	Unlock(fl)

	fl2, err := Lock(tmpDir)
	if err != nil {
		t.Fatalf("expected lock to be reacquirable after unlock: %v", err)
	}
	Unlock(fl2)
}

func TestLock_CreatesTargetDir(t *testing.T) {
	tmpDir := t.TempDir() + "/new/links"

	fl, err := Lock(tmpDir)
	if err != nil {
		t.Fatalf("expected lock to create the target directory: %v", err)
	}
	Unlock(fl)
}
