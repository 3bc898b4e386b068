package vectorstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Binary layout: magic, format version, build-ID (length-prefixed),
// dimension, vector count, then count*dimension little-endian IEEE-754
// float32 values. The round trip is bit-exact, so a restored index
// reproduces identical search results.
var flatMagic = [4]byte{'R', 'B', 'F', 'X'}

const flatVersion uint16 = 1

// WriteTo serializes the index and its build generation ID.
func (f *Flat) WriteTo(w io.Writer, buildID string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(flatMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, flatVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(len(buildID))); err != nil {
		return err
	}
	if _, err := bw.WriteString(buildID); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(f.dim)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(f.Count())); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFlat deserializes an index written by WriteTo and returns it together
// with the persisted build generation ID.
func ReadFlat(r io.Reader) (*Flat, string, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, "", fmt.Errorf("reading index header: %w", err)
	}
	if magic != flatMagic {
		return nil, "", fmt.Errorf("not a flat index file (magic %q)", magic[:])
	}
	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, "", err
	}
	if version != flatVersion {
		return nil, "", fmt.Errorf("unsupported flat index version %d", version)
	}
	var idLen uint16
	if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
		return nil, "", err
	}
	idBuf := make([]byte, idLen)
	if _, err := io.ReadFull(br, idBuf); err != nil {
		return nil, "", err
	}
	var dim, count uint32
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, "", err
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, "", err
	}
	f, err := NewFlat(int(dim))
	if err != nil {
		return nil, "", err
	}
	f.data = make([]float32, int(dim)*int(count))
	buf := make([]byte, 4)
	for i := range f.data {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, "", fmt.Errorf("reading vector data: %w", err)
		}
		f.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}
	return f, string(idBuf), nil
}

// LoadFlat reads an index file from disk.
func LoadFlat(path string) (*Flat, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()
	return ReadFlat(file)
}
