// Package emit serializes the finished pipeline output — the dense
// graph, its planar projection, and the landmark distance tables — to
// a single binary file for the routing layer to load.
package emit

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/azybler/graphbuild/internal/landmark"
	"github.com/azybler/graphbuild/internal/reindex"
)

const (
	magicBytes = "GRPHBLD1"
	version    = uint32(1)
	maxNodes   = 50_000_000
	maxEdges   = 200_000_000
)

// fileHeader is the binary format's fixed-size leading record.
type fileHeader struct {
	Magic       [8]byte
	Version     uint32
	NumNodes    uint32
	NumEdges    uint32
	NumBiEdges  uint32
	NumLandmark uint32
}

// Write serializes the dense graph, its planar projection, and the
// landmark table to path, via a temp file and atomic rename so a
// reader never observes a partially written file.
func Write(path string, d *reindex.Dense, rev *reindex.Dense, projected []r2.Vec, table *landmark.Table) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	cw := &crc32Writer{w: f, hash: crc32.NewIEEE()}

	hdr := fileHeader{
		Version:     version,
		NumNodes:    d.NumNodes,
		NumEdges:    d.NumEdges,
		NumBiEdges:  rev.NumEdges,
		NumLandmark: uint32(len(table.NodeIDs)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	origID := make([]int64, len(d.OrigID))
	lat := make([]float64, len(d.Coords))
	lon := make([]float64, len(d.Coords))
	x := make([]float64, len(projected))
	y := make([]float64, len(projected))
	for i := range d.OrigID {
		origID[i] = int64(d.OrigID[i])
		lat[i] = d.Coords[i].Lat
		lon[i] = d.Coords[i].Lon
		x[i] = projected[i].X
		y[i] = projected[i].Y
	}

	if err := writeInt64Slice(cw, origID); err != nil {
		return fmt.Errorf("write OrigID: %w", err)
	}
	if err := writeFloat64Slice(cw, lat); err != nil {
		return fmt.Errorf("write Lat: %w", err)
	}
	if err := writeFloat64Slice(cw, lon); err != nil {
		return fmt.Errorf("write Lon: %w", err)
	}
	if err := writeFloat64Slice(cw, x); err != nil {
		return fmt.Errorf("write X: %w", err)
	}
	if err := writeFloat64Slice(cw, y); err != nil {
		return fmt.Errorf("write Y: %w", err)
	}

	if err := writeUint32Slice(cw, d.FirstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeUint32Slice(cw, d.Head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeFloat64Slice(cw, d.Weight); err != nil {
		return fmt.Errorf("write Weight: %w", err)
	}

	if err := writeUint32Slice(cw, rev.FirstOut); err != nil {
		return fmt.Errorf("write BiFirstOut: %w", err)
	}
	if err := writeUint32Slice(cw, rev.Head); err != nil {
		return fmt.Errorf("write BiHead: %w", err)
	}
	if err := writeFloat64Slice(cw, rev.Weight); err != nil {
		return fmt.Errorf("write BiWeight: %w", err)
	}

	if err := writeUint32Slice(cw, table.NodeIDs); err != nil {
		return fmt.Errorf("write LandmarkNodeIDs: %w", err)
	}
	for i, row := range table.Forward {
		if err := writeFloat64Slice(cw, row); err != nil {
			return fmt.Errorf("write LandmarkForward[%d]: %w", i, err)
		}
	}
	for i, row := range table.Backward {
		if err := writeFloat64Slice(cw, row); err != nil {
			return fmt.Errorf("write LandmarkBackward[%d]: %w", i, err)
		}
	}

	checksum := cw.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Loaded holds the decoded contents of a file written by Write.
type Loaded struct {
	NumNodes uint32

	OrigID []int64
	Lat    []float64
	Lon    []float64
	X      []float64
	Y      []float64

	FirstOut []uint32
	Head     []uint32
	Weight   []float64

	BiFirstOut []uint32
	BiHead     []uint32
	BiWeight   []float64

	LandmarkNodeIDs  []uint32
	LandmarkForward  [][]float64
	LandmarkBackward [][]float64
}

// Read deserializes a file written by Write, validating its magic
// bytes, version, size limits, and trailing CRC32 checksum.
func Read(path string) (*Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	cr := &crc32Reader{r: f, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges || hdr.NumBiEdges > maxEdges {
		return nil, fmt.Errorf("edge count exceeds limit %d", maxEdges)
	}

	out := &Loaded{NumNodes: hdr.NumNodes}
	n := int(hdr.NumNodes)

	if out.OrigID, err = readInt64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read OrigID: %w", err)
	}
	if out.Lat, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read Lat: %w", err)
	}
	if out.Lon, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read Lon: %w", err)
	}
	if out.X, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read X: %w", err)
	}
	if out.Y, err = readFloat64Slice(cr, n); err != nil {
		return nil, fmt.Errorf("read Y: %w", err)
	}

	if out.FirstOut, err = readUint32Slice(cr, n+1); err != nil {
		return nil, fmt.Errorf("read FirstOut: %w", err)
	}
	if out.Head, err = readUint32Slice(cr, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("read Head: %w", err)
	}
	if out.Weight, err = readFloat64Slice(cr, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("read Weight: %w", err)
	}

	if out.BiFirstOut, err = readUint32Slice(cr, n+1); err != nil {
		return nil, fmt.Errorf("read BiFirstOut: %w", err)
	}
	if out.BiHead, err = readUint32Slice(cr, int(hdr.NumBiEdges)); err != nil {
		return nil, fmt.Errorf("read BiHead: %w", err)
	}
	if out.BiWeight, err = readFloat64Slice(cr, int(hdr.NumBiEdges)); err != nil {
		return nil, fmt.Errorf("read BiWeight: %w", err)
	}

	if out.LandmarkNodeIDs, err = readUint32Slice(cr, int(hdr.NumLandmark)); err != nil {
		return nil, fmt.Errorf("read LandmarkNodeIDs: %w", err)
	}
	out.LandmarkForward = make([][]float64, hdr.NumLandmark)
	for i := range out.LandmarkForward {
		if out.LandmarkForward[i], err = readFloat64Slice(cr, n); err != nil {
			return nil, fmt.Errorf("read LandmarkForward[%d]: %w", i, err)
		}
	}
	out.LandmarkBackward = make([][]float64, hdr.NumLandmark)
	for i := range out.LandmarkBackward {
		if out.LandmarkBackward[i], err = readFloat64Slice(cr, n); err != nil {
			return nil, fmt.Errorf("read LandmarkBackward[%d]: %w", i, err)
		}
	}

	expectedCRC := cr.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	return out, nil
}

// Zero-copy I/O helpers using unsafe.Slice, matching the bulk-array
// encoding used throughout this format.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt64Slice(w io.Writer, s []int64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt64Slice(r io.Reader, n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32-accumulating wrappers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
