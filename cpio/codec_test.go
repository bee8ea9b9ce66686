package cpio

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{
		Ino: 1, Mode: 0100644, UID: 0, GID: 0, NLink: 1,
		MTime: 1234567890, FileSize: 5, Name: "./etc/motd",
	}
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader failed: %s", err)
	}
	if err := WriteData(&buf, []byte("hello")); err != nil {
		t.Fatalf("WriteData failed: %s", err)
	}
	if err := WriteTrailer(&buf); err != nil {
		t.Fatalf("WriteTrailer failed: %s", err)
	}

	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader failed: %s", err)
	}
	if got.Name != "./etc/motd" || got.Mode != 0100644 || got.FileSize != 5 {
		t.Fatalf("unexpected header: %+v", got)
	}

	data, err := ReadData(&buf, got)
	if err != nil {
		t.Fatalf("ReadData failed: %s", err)
	}
	if string(data) != "hello" {
		t.Fatalf("data = %q", data)
	}

	trailer, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader(trailer) failed: %s", err)
	}
	if !trailer.IsTrailer() {
		t.Fatalf("expected trailer entry, got %+v", trailer)
	}
}

func TestWriteHeaderUsesLowercaseHex(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{Ino: 0xABCDEF, Mode: 0100644, NLink: 1, Name: "x"}
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader failed: %s", err)
	}
	fields := buf.Bytes()[6 : 6+13*8]
	for _, b := range fields {
		if b >= 'A' && b <= 'F' {
			t.Fatalf("hex fields must be lowercase, got %q", fields)
		}
	}
	if !bytes.Contains(fields, []byte("00abcdef")) {
		t.Fatalf("expected lowercase ino field in %q", fields)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewReader(bytes.Repeat([]byte("X"), headerSize))
	if _, err := ReadHeader(buf); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestPaddingAlignment(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{NLink: 1, FileSize: 3, Name: "a"}
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader failed: %s", err)
	}
	if err := WriteData(&buf, []byte("xyz")); err != nil {
		t.Fatalf("WriteData failed: %s", err)
	}
	if buf.Len()%4 != 0 {
		t.Fatalf("expected 4-byte aligned stream, got length %d", buf.Len())
	}
}
