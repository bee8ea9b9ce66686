package fsm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/holocm/rpmcore/cpio"
	"github.com/holocm/rpmcore/fileinfo"
	"github.com/holocm/rpmcore/header"
)

func buildFI(t *testing.T, dirNames, baseNames []string, dirIdx []int32, sizes []int32, modes []int16, flags []int32, nlinks []int32, devices, inodes []int32) *fileinfo.FI {
	t.Helper()
	h := header.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Add failed: %s", err)
		}
	}
	n := len(baseNames)
	states := make([]byte, n)
	blank := make([]string, n)
	users := make([]string, n)
	groups := make([]string, n)
	for i := range blank {
		users[i] = "root"
		groups[i] = "root"
	}
	must(h.Add(header.TagDirNames, header.StringArrayType, dirNames, int32(len(dirNames))))
	must(h.Add(header.TagBasenames, header.StringArrayType, baseNames, int32(n)))
	must(h.Add(header.TagDirIndexes, header.Int32Type, dirIdx, int32(n)))
	must(h.Add(header.TagFileSizes, header.Int32Type, sizes, int32(n)))
	must(h.Add(header.TagFileModes, header.Int16Type, modes, int32(n)))
	must(h.Add(header.TagFileFlags, header.Int32Type, flags, int32(n)))
	must(h.Add(header.TagFileStates, header.CharType, states, int32(n)))
	must(h.Add(header.TagFileMD5s, header.StringArrayType, blank, int32(n)))
	must(h.Add(header.TagFileLinktos, header.StringArrayType, blank, int32(n)))
	must(h.Add(header.TagFileUserName, header.StringArrayType, users, int32(n)))
	must(h.Add(header.TagFileGroupName, header.StringArrayType, groups, int32(n)))
	must(h.Add(header.TagFileNLinks, header.Int32Type, nlinks, int32(n)))
	must(h.Add(header.TagFileDevices, header.Int32Type, devices, int32(n)))
	must(h.Add(header.TagFileInodes, header.Int32Type, inodes, int32(n)))

	fi, err := fileinfo.FromHeader(h, fileinfo.TransAdded)
	if err != nil {
		t.Fatalf("FromHeader failed: %s", err)
	}
	return fi
}

func writeEntry(t *testing.T, buf *bytes.Buffer, name string, mode, nlink, ino uint32, data []byte) {
	t.Helper()
	hdr := &cpio.Header{
		Ino:      ino,
		Mode:     mode,
		NLink:    nlink,
		FileSize: uint32(len(data)),
		Name:     name,
	}
	if err := cpio.WriteHeader(buf, hdr); err != nil {
		t.Fatalf("WriteHeader: %s", err)
	}
	if err := cpio.WriteData(buf, data); err != nil {
		t.Fatalf("WriteData: %s", err)
	}
}

func runEntry(t *testing.T, m *Machine, r *bytes.Reader, data []byte) {
	t.Helper()
	if err := m.Init(r); err != nil {
		t.Fatalf("Init: %s", err)
	}
	if err := m.Map(); err != nil {
		t.Fatalf("Map: %s", err)
	}
	if err := m.Pre(); err != nil {
		t.Fatalf("Pre: %s", err)
	}
	if !m.Postponed() {
		if err := m.Process(bytes.NewReader(data), ""); err != nil {
			t.Fatalf("Process: %s", err)
		}
		if err := m.Post(); err != nil {
			t.Fatalf("Post: %s", err)
		}
		if err := m.Commit(); err != nil {
			t.Fatalf("Commit: %s", err)
		}
	}
}

const regularMode = 0100644

func TestSingleFileInstall(t *testing.T) {
	root := t.TempDir()
	fi := buildFI(t,
		[]string{"/usr/bin/"}, []string{"foo"}, []int32{0},
		[]int32{5}, []int16{regularMode}, []int32{0}, []int32{1},
		[]int32{0}, []int32{1})

	var buf bytes.Buffer
	writeEntry(t, &buf, "usr/bin/foo", regularMode, 1, 1, []byte("hello"))
	r := bytes.NewReader(buf.Bytes())

	m := New(root, fi, fileinfo.TransAdded, Options{}, nil)
	runEntry(t, m, r, []byte("hello"))

	got, err := os.ReadFile(filepath.Join(root, "usr/bin/foo"))
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	if string(got) != "hello" {
		t.Fatalf("content = %q", got)
	}
}

func TestHardLinkInstall(t *testing.T) {
	root := t.TempDir()
	fi := buildFI(t,
		[]string{"/usr/share/"}, []string{"a", "b"}, []int32{0, 0},
		[]int32{0, 5}, []int16{regularMode, regularMode}, []int32{0, 0}, []int32{2, 2},
		[]int32{0, 0}, []int32{42, 42})

	var buf bytes.Buffer
	writeEntry(t, &buf, "usr/share/a", regularMode, 2, 42, nil)
	writeEntry(t, &buf, "usr/share/b", regularMode, 2, 42, []byte("world"))
	r := bytes.NewReader(buf.Bytes())

	m := New(root, fi, fileinfo.TransAdded, Options{}, nil)

	// first member: size 0, no carrier yet -> postponed
	if err := m.Init(r); err != nil {
		t.Fatalf("Init(a): %s", err)
	}
	if err := m.Map(); err != nil {
		t.Fatalf("Map(a): %s", err)
	}
	if err := m.Pre(); err != nil {
		t.Fatalf("Pre(a): %s", err)
	}
	if !m.Postponed() {
		t.Fatalf("expected member a to be postponed")
	}

	// second member: carries the bytes
	runEntry(t, m, r, []byte("world"))

	got, err := os.ReadFile(filepath.Join(root, "usr/share/b"))
	if err != nil {
		t.Fatalf("ReadFile(b): %s", err)
	}
	if string(got) != "world" {
		t.Fatalf("content(b) = %q", got)
	}
	gotA, err := os.ReadFile(filepath.Join(root, "usr/share/a"))
	if err != nil {
		t.Fatalf("ReadFile(a): %s", err)
	}
	if string(gotA) != "world" {
		t.Fatalf("content(a) = %q, want linked copy of b", gotA)
	}

	if errs := m.Destroy(); len(errs) != 0 {
		t.Fatalf("Destroy reported residual hard links: %v", errs)
	}
}

func TestBackupAction(t *testing.T) {
	root := t.TempDir()
	fi := buildFI(t,
		[]string{"/etc/"}, []string{"foo.conf"}, []int32{0},
		[]int32{3}, []int16{regularMode}, []int32{int32(fileinfo.FileFlagConfig)}, []int32{1},
		[]int32{0}, []int32{7})

	if err := os.MkdirAll(filepath.Join(root, "etc"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "etc/foo.conf"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	writeEntry(t, &buf, "etc/foo.conf", regularMode, 1, 7, []byte("new"))
	r := bytes.NewReader(buf.Bytes())

	m := New(root, fi, fileinfo.TransAdded, Options{}, nil)
	runEntry(t, m, r, []byte("new"))

	orig, err := os.ReadFile(filepath.Join(root, "etc/foo.conf.rpmorig"))
	if err != nil {
		t.Fatalf("ReadFile(.rpmorig): %s", err)
	}
	if string(orig) != "old" {
		t.Fatalf(".rpmorig content = %q", orig)
	}
	cur, err := os.ReadFile(filepath.Join(root, "etc/foo.conf"))
	if err != nil {
		t.Fatalf("ReadFile(foo.conf): %s", err)
	}
	if string(cur) != "new" {
		t.Fatalf("foo.conf content = %q", cur)
	}
}

func TestUndoOnDigestMismatch(t *testing.T) {
	root := t.TempDir()
	fi := buildFI(t,
		[]string{"/usr/bin/"}, []string{"foo"}, []int32{0},
		[]int32{5}, []int16{regularMode}, []int32{0}, []int32{1},
		[]int32{0}, []int32{1})

	var buf bytes.Buffer
	writeEntry(t, &buf, "usr/bin/foo", regularMode, 1, 1, []byte("hello"))
	r := bytes.NewReader(buf.Bytes())

	m := New(root, fi, fileinfo.TransAdded, Options{}, nil)
	if err := m.Init(r); err != nil {
		t.Fatalf("Init: %s", err)
	}
	if err := m.Map(); err != nil {
		t.Fatalf("Map: %s", err)
	}
	if err := m.Pre(); err != nil {
		t.Fatalf("Pre: %s", err)
	}

	err := m.Process(bytes.NewReader([]byte("hello")), "0000000000000000000000000000000deadbeef")
	if err == nil {
		t.Fatalf("expected digest mismatch error")
	}
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo: %s", err)
	}

	if _, err := os.Lstat(filepath.Join(root, "usr/bin/foo")); !os.IsNotExist(err) {
		t.Fatalf("expected no file left behind after Undo, lstat err = %v", err)
	}
}
