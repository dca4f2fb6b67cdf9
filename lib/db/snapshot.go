package db

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Snapshot Format
// --------------------------------------------------------------------------
//
// A snapshot is the magic header, a version byte and a sequence of entries:
//
//	[uint32 key length][key][uint32 value length][value]
//
// all lengths little-endian. A zero key length terminates the stream.

var snapshotMagic = []byte("DTRIPLE\x00")

const (
	snapshotVersion = 1
	restoreBatch    = 4096
	maxEntrySize    = 1 << 30
)

// Dump writes every entry of the namespace to w in key order.
func Dump(kv KVDB, w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(snapshotMagic); err != nil {
		return err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return err
	}

	var writeErr error
	lenBuf := make([]byte, 4)
	writeChunk := func(b []byte) bool {
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(b)))
		if _, writeErr = bw.Write(lenBuf); writeErr != nil {
			return false
		}
		if _, writeErr = bw.Write(b); writeErr != nil {
			return false
		}
		return true
	}

	err := kv.Scan(nil, nil, func(key, value []byte) bool {
		return writeChunk(key) && writeChunk(value)
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	// terminator
	binary.LittleEndian.PutUint32(lenBuf, 0)
	if _, err := bw.Write(lenBuf); err != nil {
		return err
	}
	return bw.Flush()
}

// Restore reads a snapshot written by Dump and inserts all entries into kv.
// Existing entries with other keys are left untouched.
func Restore(kv KVDB, r io.Reader) error {
	br := bufio.NewReader(r)

	header := make([]byte, len(snapshotMagic)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return errors.Wrap(err, "failed to read snapshot header")
	}
	if !bytes.Equal(header[:len(snapshotMagic)], snapshotMagic) {
		return errors.New("invalid snapshot format: bad magic")
	}
	if header[len(snapshotMagic)] != snapshotVersion {
		return errors.Newf("unsupported snapshot version %d", header[len(snapshotMagic)])
	}

	batch := NewBatch()
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if _, err := kv.Apply(batch); err != nil {
			return err
		}
		batch.Reset()
		return nil
	}

	for {
		key, err := readChunk(br)
		if err != nil {
			return errors.Wrap(err, "failed to read snapshot key")
		}
		if len(key) == 0 {
			break
		}
		value, err := readChunk(br)
		if err != nil {
			return errors.Wrap(err, "failed to read snapshot value")
		}
		batch.Set(key, value)
		if batch.Len() >= restoreBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func readChunk(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxEntrySize {
		return nil, errors.Newf("entry of %d bytes exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
