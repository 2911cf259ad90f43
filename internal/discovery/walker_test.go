package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

const pyNode = "import rclpy\nfrom rclpy.node import Node\n\nclass Talker(Node):\n    pass\n"

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// writePkg creates a package directory with a manifest and returns its path.
func writePkg(t *testing.T, dir string) string {
	t.Helper()
	write(t, filepath.Join(dir, "package.xml"), "<package/>")
	return dir
}

func TestFindNodePackages_Basic(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := writePkg(t, filepath.Join(tmpDir, "pkg_a"))
	write(t, filepath.Join(pkg, "src", "node.py"), pyNode)
	write(t, filepath.Join(pkg, "test", "fixture.py"), pyNode)

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	got := res.Packages[0]
	if got.Name != "pkg_a" {
		t.Errorf("expected name pkg_a, got %s", got.Name)
	}
	if got.Dir != pkg {
		t.Errorf("expected dir %s, got %s", pkg, got.Dir)
	}
	if len(got.NodeFiles) != 1 || got.NodeFiles[0] != filepath.Join("src", "node.py") {
		t.Errorf("expected node files [src/node.py] (test dir pruned), got %v", got.NodeFiles)
	}
	if res.ReachedMax {
		t.Error("expected full traversal not to report the cap")
	}
}

func TestFindNodePackages_DropsPackagesWithoutNodes(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := writePkg(t, filepath.Join(tmpDir, "pkg_plain"))
	write(t, filepath.Join(pkg, "src", "util.py"), "def helper():\n    return 42\n")

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 0 {
		t.Fatalf("expected 0 packages, got %d", len(res.Packages))
	}
}

func TestFindNodePackages_SkipsTestParentCandidates(t *testing.T) {
	tmpDir := t.TempDir()
	excluded := writePkg(t, filepath.Join(tmpDir, "tests", "fixture_pkg"))
	write(t, filepath.Join(excluded, "node.py"), pyNode)

	// Only the immediate parent is checked at the top level: a package two
	// levels below a test directory is still accepted.
	deep := writePkg(t, filepath.Join(tmpDir, "tests", "deep", "pkg_b"))
	write(t, filepath.Join(deep, "node.py"), pyNode)

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	if res.Packages[0].Name != "pkg_b" {
		t.Errorf("expected pkg_b, got %s", res.Packages[0].Name)
	}
}

func TestIndexNodePackages_RejectsTestComponentAnywhere(t *testing.T) {
	tmpDir := t.TempDir()
	deep := writePkg(t, filepath.Join(tmpDir, "tests", "deep", "pkg_b"))
	write(t, filepath.Join(deep, "node.py"), pyNode)
	clean := writePkg(t, filepath.Join(tmpDir, "src", "pkg_c"))
	write(t, filepath.Join(clean, "node.py"), pyNode)

	s := NewScanner(nil, nil)
	res, err := s.IndexNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	if res.Packages[0].Name != "pkg_c" {
		t.Errorf("expected pkg_c, got %s", res.Packages[0].Name)
	}
}

func TestFindNodePackages_NestedPackages(t *testing.T) {
	tmpDir := t.TempDir()
	outer := writePkg(t, filepath.Join(tmpDir, "outer"))
	write(t, filepath.Join(outer, "node.py"), pyNode)
	inner := writePkg(t, filepath.Join(outer, "inner"))
	write(t, filepath.Join(inner, "node.py"), pyNode)

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 2 {
		t.Fatalf("expected 2 packages (nested packages are independent), got %d", len(res.Packages))
	}
	if res.Packages[0].Name != "outer" || res.Packages[1].Name != "inner" {
		t.Errorf("expected outer before inner, got %s, %s", res.Packages[0].Name, res.Packages[1].Name)
	}
}

func TestFindNodePackages_MaxResults(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		pkg := writePkg(t, filepath.Join(tmpDir, name))
		write(t, filepath.Join(pkg, "node.py"), pyNode)
	}

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 2 {
		t.Fatalf("expected exactly 2 packages, got %d", len(res.Packages))
	}
	if !res.ReachedMax {
		t.Error("expected ReachedMax to be set")
	}
}

func TestFindNodePackages_NodeFileOrder(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := writePkg(t, filepath.Join(tmpDir, "pkg_a"))
	write(t, filepath.Join(pkg, "top.py"), pyNode)
	write(t, filepath.Join(pkg, "src", "deep.py"), pyNode)

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	files := res.Packages[0].NodeFiles
	if len(files) != 2 || files[0] != "top.py" || files[1] != filepath.Join("src", "deep.py") {
		t.Errorf("expected files of a directory before its subdirectories, got %v", files)
	}
}

func TestFindNodePackages_MissingRoot(t *testing.T) {
	s := NewScanner(nil, nil)
	if _, err := s.FindNodePackages("/nonexistent/workspace", 0); err == nil {
		t.Fatal("expected error for missing search directory")
	}
}

func TestFindNodePackages_FollowsSymlinkedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	real := writePkg(t, filepath.Join(tmpDir, "elsewhere", "pkg_real"))
	write(t, filepath.Join(real, "node.py"), pyNode)

	ws := filepath.Join(tmpDir, "ws")
	if err := os.MkdirAll(ws, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "elsewhere"), filepath.Join(ws, "linked")); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(ws, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package through the symlink, got %d", len(res.Packages))
	}
}

func TestFindNodePackages_SymlinkCycleDoesNotHang(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := writePkg(t, filepath.Join(tmpDir, "pkg_a"))
	write(t, filepath.Join(pkg, "node.py"), pyNode)
	if err := os.Symlink(tmpDir, filepath.Join(pkg, "loop")); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package despite the cycle, got %d", len(res.Packages))
	}
}

func TestFindNodePackages_DanglingSymlinkTolerated(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := writePkg(t, filepath.Join(tmpDir, "pkg_a"))
	write(t, filepath.Join(pkg, "node.py"), pyNode)
	if err := os.Symlink(filepath.Join(tmpDir, "gone.py"), filepath.Join(pkg, "broken.py")); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(nil, nil)
	res, err := s.FindNodePackages(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	if len(res.Packages[0].NodeFiles) != 1 {
		t.Errorf("expected the broken link to be skipped, got %v", res.Packages[0].NodeFiles)
	}
}

func TestFindMissingReadmes(t *testing.T) {
	tmpDir := t.TempDir()
	bare := writePkg(t, filepath.Join(tmpDir, "pkg_bare"))
	documented := writePkg(t, filepath.Join(tmpDir, "pkg_doc"))
	write(t, filepath.Join(documented, "README.md"), "# pkg_doc")
	writePkg(t, filepath.Join(tmpDir, "tests", "fixture_pkg"))

	s := NewScanner(nil, nil)
	res, err := s.FindMissingReadmes(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(res.Packages))
	}
	if res.Packages[0].Dir != bare {
		t.Errorf("expected %s, got %s", bare, res.Packages[0].Dir)
	}
	if len(res.Packages[0].NodeFiles) != 0 {
		t.Errorf("expected no node files in README mode, got %v", res.Packages[0].NodeFiles)
	}
}

func TestFindMissingReadmes_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	writePkg(t, filepath.Join(tmpDir, "pkg_a"))
	writePkg(t, filepath.Join(tmpDir, "pkg_b"))

	s := NewScanner(nil, nil)
	first, err := s.FindMissingReadmes(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.FindMissingReadmes(tmpDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Packages) != len(second.Packages) {
		t.Fatalf("expected identical reruns, got %d then %d", len(first.Packages), len(second.Packages))
	}
	for i := range first.Packages {
		if first.Packages[i].Dir != second.Packages[i].Dir {
			t.Errorf("expected stable order, got %s vs %s", first.Packages[i].Dir, second.Packages[i].Dir)
		}
	}
}
