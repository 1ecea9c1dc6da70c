package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var byteOrder = binary.LittleEndian

const (
	maxDictBytes = 4096
	maxDictPairs = 256
)

var (
	errShortRead   = errors.New("vox: short read")
	errDictTooBig  = errors.New("vox: dictionary exceeds size limit")
	errDictTooMany = errors.New("vox: dictionary exceeds pair limit")
)

// chunkReader is a bounded cursor over an in-memory byte buffer. All
// multi-byte primitives are little-endian.
type chunkReader struct {
	buf []byte
	off int
}

func newChunkReader(buf []byte) *chunkReader {
	return &chunkReader{buf: buf}
}

func (r *chunkReader) eof() bool {
	return r.off >= len(r.buf)
}

func (r *chunkReader) remaining() int {
	return len(r.buf) - r.off
}

// bytesN returns a zero-copy view of the next n bytes and advances the
// cursor. It fails if fewer than n bytes remain.
func (r *chunkReader) bytesN(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errShortRead
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *chunkReader) seek(n int) error {
	if n < 0 || r.remaining() < n {
		return errShortRead
	}
	r.off += n
	return nil
}

func (r *chunkReader) u8() (uint8, error) {
	b, err := r.bytesN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *chunkReader) u32() (uint32, error) {
	b, err := r.bytesN(4)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b), nil
}

func (r *chunkReader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *chunkReader) str(n int) (string, error) {
	b, err := r.bytesN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// dict is a decoded key/value dictionary from the wire format described in
// spec §4.1: u32 count, then (u32 keyLen, key, u32 valLen, val) per pair.
type dict struct {
	pairs map[string]string
}

func (r *chunkReader) readDict() (*dict, error) {
	start := r.off
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxDictPairs {
		return nil, errDictTooMany
	}
	d := &dict{pairs: make(map[string]string, n)}
	for i := uint32(0); i < n; i++ {
		klen, err := r.u32()
		if err != nil {
			return nil, err
		}
		key, err := r.str(int(klen))
		if err != nil {
			return nil, err
		}
		vlen, err := r.u32()
		if err != nil {
			return nil, err
		}
		val, err := r.str(int(vlen))
		if err != nil {
			return nil, err
		}
		d.pairs[key] = val
		if r.off-start > maxDictBytes {
			return nil, errDictTooBig
		}
	}
	return d, nil
}

func (d *dict) get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.pairs[key]
	return v, ok
}

func (d *dict) getBool(key string, def bool) bool {
	v, ok := d.get(key)
	if !ok {
		return def
	}
	return v == "1"
}

// chunkWriter is a growable byte vector with append-primitive helpers and
// an offset method for back-patching length fields.
type chunkWriter struct {
	buf bytes.Buffer
}

func (w *chunkWriter) offset() int {
	return w.buf.Len()
}

func (w *chunkWriter) writeBytes(b []byte) {
	w.buf.Write(b)
}

func (w *chunkWriter) writeU8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *chunkWriter) writeU32(v uint32) {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *chunkWriter) writeI32(v int32) {
	w.writeU32(uint32(v))
}

func (w *chunkWriter) writeString(s string) {
	w.buf.WriteString(s)
}

// writeChunkHeader writes the (id, contentSize, childrenSize) header.
// Callers that need to back-patch a size take offset() before calling it
// and use patchU32At afterwards.
func (w *chunkWriter) writeChunkHeader(id string, contentSize, childrenSize uint32) {
	if len(id) != 4 {
		panic("vox: chunk id must be 4 bytes")
	}
	w.writeString(id)
	w.writeU32(contentSize)
	w.writeU32(childrenSize)
}

// patchU32At overwrites the 4 bytes at byte offset off with v.
func (w *chunkWriter) patchU32At(off int, v uint32) {
	b := w.buf.Bytes()
	if off < 0 || off+4 > len(b) {
		panic(fmt.Sprintf("vox: patch offset %d out of range", off))
	}
	byteOrder.PutUint32(b[off:off+4], v)
}

type dictWriter struct {
	keys []string
	vals []string
}

func (dw *dictWriter) add(key, val string) {
	dw.keys = append(dw.keys, key)
	dw.vals = append(dw.vals, val)
}

func (dw *dictWriter) addBool(key string, v bool) {
	if v {
		dw.add(key, "1")
	}
}

func (w *chunkWriter) writeDict(dw *dictWriter) {
	w.writeU32(uint32(len(dw.keys)))
	for i, k := range dw.keys {
		w.writeU32(uint32(len(k)))
		w.writeString(k)
		v := dw.vals[i]
		w.writeU32(uint32(len(v)))
		w.writeString(v)
	}
}

// writeChunk writes a chunk whose content is produced by fn into a
// temporary buffer first, so its length is known up front. It has no
// children (children size is always 0); the writer uses it for every
// chunk except MAIN, whose children size is back-patched instead.
func (w *chunkWriter) writeChunk(id string, fn func(cw *chunkWriter)) {
	var body chunkWriter
	fn(&body)
	w.writeChunkHeader(id, uint32(body.offset()), 0)
	w.writeBytes(body.buf.Bytes())
}
