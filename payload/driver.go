/*******************************************************************************
*
* Copyright 2016-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package payload implements the outer loop that drives an fsm.Machine
// through every entry of a CPIO archive, on both the install and the
// build side.
package payload

import (
	"bufio"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/holocm/rpmcore/cpio"
	"github.com/holocm/rpmcore/fsm"
	"github.com/holocm/rpmcore/rpmerr"
)

// DigestLookup returns the expected content digest for a file, given the
// filesystem path it is being installed to, or "" if none is known.
type DigestLookup func(path string) string

// Driver owns one Machine and drives it through an entire payload stream.
// It is not safe for concurrent use; callers create one Driver per
// transaction element, matching the Machine it wraps.
type Driver struct {
	Machine *fsm.Machine
	Digests DigestLookup

	FailedFile  string
	ArchiveSize int64

	// ResidualLinks holds the MissingHardLink errors Machine.Destroy()
	// produced for hard-link sets that never reached LinksLeft == 0. Install
	// populates this even though it also returns the first one, so a caller
	// that wants every residual set (not just the one that failed the
	// transaction) can inspect it afterwards.
	ResidualLinks []error
}

// NewDriver wraps m for a full-payload run. digests may be nil, in which
// case no entry's content is verified against a stored digest.
func NewDriver(m *fsm.Machine, digests DigestLookup) *Driver {
	if digests == nil {
		digests = func(string) string { return "" }
	}
	return &Driver{Machine: m, Digests: digests}
}

// Install decompresses r as needed and drives every entry of the archive
// through Init -> Pre -> Process -> Post -> (Commit|Undo), stopping on the
// first fatal error. Per §4.7.
func (d *Driver) Install(r io.Reader) error {
	dr, err := DecompressReader(r)
	if err != nil {
		return err
	}
	if c, ok := dr.(io.Closer); ok {
		defer c.Close()
	}

	for {
		initErr := d.Machine.Init(dr)
		if initErr != nil {
			if rerr, ok := initErr.(*rpmerr.Error); ok && rerr.Kind == rpmerr.HdrTrailer {
				break
			}
			return initErr
		}

		if err := d.Machine.Map(); err != nil {
			return err
		}

		rc := d.Machine.Pre()
		size := d.Machine.PendingSize()
		if rc == nil && !d.Machine.Postponed() {
			digest := d.Digests(d.Machine.Path())
			rc = d.Machine.Process(dr, digest)
		} else if rc == nil {
			// Eat: the entry was postponed, but its payload bytes (if any,
			// e.g. a Skip action on a regular file) still occupy the stream.
			if _, err := io.CopyN(io.Discard, dr, size); err != nil {
				return rpmerr.Wrap("Payload.Install", rpmerr.ReadFailed, err)
			}
		}
		if rc == nil {
			rc = cpio.SkipPadding(dr, int(size))
		}
		if rc == nil {
			rc = d.Machine.Post()
		}

		if rc != nil {
			if err := d.Machine.Undo(); err != nil {
				return err
			}
			return rc
		}
		if err := d.Machine.Commit(); err != nil {
			return err
		}
	}

	d.ResidualLinks = d.Machine.Destroy()
	if len(d.ResidualLinks) > 0 {
		return d.ResidualLinks[0]
	}
	return nil
}

// DecompressReader sniffs r's leading bytes and wraps it in the matching
// decompressor. Decompression never needs to be parallel (only the build
// side's compression step benefits from klauspost/pgzip), so a plain gzip
// or zstd reader is sufficient here.
func DecompressReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, rpmerr.Wrap("Payload.DecompressReader", rpmerr.ReadFailed, err)
	}

	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, rpmerr.Wrap("Payload.DecompressReader", rpmerr.ReadFailed, err)
		}
		return gr, nil
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, rpmerr.Wrap("Payload.DecompressReader", rpmerr.ReadFailed, err)
		}
		return zstdReadCloser{zr}, nil
	default:
		return br, nil
	}
}

// zstdReadCloser adapts *zstd.Decoder (whose Close returns no error) to
// io.ReadCloser so DecompressReader's result is always closeable.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
