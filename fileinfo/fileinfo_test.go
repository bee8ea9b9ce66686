package fileinfo

import (
	"testing"

	"github.com/holocm/rpmcore/header"
)

func buildTestHeader(t *testing.T) *header.Header {
	t.Helper()
	h := header.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Add failed: %s", err)
		}
	}
	must(h.Add(header.TagDirNames, header.StringArrayType, []string{"/etc/", "/usr/bin/"}, 2))
	must(h.Add(header.TagBasenames, header.StringArrayType, []string{"foo.conf", "foo"}, 2))
	must(h.Add(header.TagDirIndexes, header.Int32Type, []int32{0, 1}, 2))
	must(h.Add(header.TagFileSizes, header.Int32Type, []int32{10, 20}, 2))
	must(h.Add(header.TagFileModes, header.Int16Type, []int16{0100644, 0100755}, 2))
	must(h.Add(header.TagFileFlags, header.Int32Type, []int32{int32(FileFlagConfig), 0}, 2))
	must(h.Add(header.TagFileStates, header.CharType, []byte{0, 0}, 2))
	must(h.Add(header.TagFileMD5s, header.StringArrayType, []string{"", ""}, 2))
	must(h.Add(header.TagFileLinktos, header.StringArrayType, []string{"", ""}, 2))
	must(h.Add(header.TagFileUserName, header.StringArrayType, []string{"root", "root"}, 2))
	must(h.Add(header.TagFileGroupName, header.StringArrayType, []string{"root", "root"}, 2))
	return h
}

func TestFromHeaderAndMapFindIndex(t *testing.T) {
	h := buildTestHeader(t)
	fi, err := FromHeader(h, TransAdded)
	if err != nil {
		t.Fatalf("FromHeader failed: %s", err)
	}
	if len(fi.BaseNames) != 2 {
		t.Fatalf("expected 2 files, got %d", len(fi.BaseNames))
	}

	idx, ok := fi.MapFindIndex("./etc/foo.conf")
	if !ok || fi.BaseNames[idx] != "foo.conf" {
		t.Fatalf("MapFindIndex(./etc/foo.conf) = %d, %v", idx, ok)
	}
	idx, ok = fi.MapFindIndex("usr/bin/foo")
	if !ok || fi.BaseNames[idx] != "foo" {
		t.Fatalf("MapFindIndex(usr/bin/foo) = %d, %v", idx, ok)
	}
	if _, ok := fi.MapFindIndex("./nonexistent"); ok {
		t.Fatalf("expected no match for nonexistent path")
	}
}

func TestActionDerivation(t *testing.T) {
	h := buildTestHeader(t)
	fi, err := FromHeader(h, TransAdded)
	if err != nil {
		t.Fatalf("FromHeader failed: %s", err)
	}
	if a := fi.Action(0); a != ActionBackup {
		t.Fatalf("expected ActionBackup for config file, got %v", a)
	}
	if a := fi.Action(1); a != ActionCreate {
		t.Fatalf("expected ActionCreate for plain file, got %v", a)
	}

	oSuffix, nSuffix := fi.Suffixes(0)
	if oSuffix != ".rpmorig" || nSuffix != "" {
		t.Fatalf("Suffixes(config, added) = %q, %q", oSuffix, nSuffix)
	}
}

func TestActionDerivationOnRemove(t *testing.T) {
	h := buildTestHeader(t)
	fi, err := FromHeader(h, TransRemoved)
	if err != nil {
		t.Fatalf("FromHeader failed: %s", err)
	}
	if a := fi.Action(1); a != ActionRemove {
		t.Fatalf("expected ActionRemove for plain file on erase, got %v", a)
	}
	oSuffix, _ := fi.Suffixes(0)
	if oSuffix != ".rpmsave" {
		t.Fatalf("expected .rpmsave for config file on erase, got %q", oSuffix)
	}
}

func TestMapFSPath(t *testing.T) {
	h := buildTestHeader(t)
	fi, err := FromHeader(h, TransAdded)
	if err != nil {
		t.Fatalf("FromHeader failed: %s", err)
	}
	path := fi.MapFSPath(0, "", ".rpmnew")
	if path != "/etc/foo.conf.rpmnew" {
		t.Fatalf("MapFSPath = %q", path)
	}
}
