// Package blob encodes weather grids into compact binary payloads shared by
// the SQL grid store, the Redis snapshot store and the ingestion HTTP client.
//
// Layout before compression:
//
//	magic "VGRD" | version byte | uint32 header length | JSON header | float64 LE field data
//
// Field data follows the header's field order, each field row-major
// (len(lats) x len(lons)). NaN marks cells without data. The whole payload is
// zstd-compressed.
package blob

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"voyage-routing-service/internal/grid"

	"github.com/klauspost/compress/zstd"
)

const (
	magic   = "VGRD"
	version = 1
)

// ContentType is used when payloads travel over HTTP.
const ContentType = "application/vnd.voyage.grid+zstd"

type header struct {
	Parameter grid.Parameter `json:"parameter"`
	Time      time.Time      `json:"time"`
	Lats      []float64      `json:"lats"`
	Lons      []float64      `json:"lons"`
	Fields    []grid.Field   `json:"fields"`
}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return encoder, decoder, codecErr
}

// EncodeGrid serialises and compresses g.
func EncodeGrid(g *grid.Grid) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, fmt.Errorf("encode grid: init zstd: %w", err)
	}

	snap := g.Snapshot()
	h := header{
		Parameter: snap.Parameter,
		Time:      snap.Time,
		Lats:      snap.Lats,
		Lons:      snap.Lons,
		Fields:    g.Fields(),
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode grid: marshal header: %w", err)
	}

	rows, cols := len(snap.Lats), len(snap.Lons)
	var buf bytes.Buffer
	buf.Grow(len(magic) + 5 + len(hb) + len(h.Fields)*rows*cols*8)
	buf.WriteString(magic)
	buf.WriteByte(version)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(hb)))
	buf.Write(hb)

	var word [8]byte
	for _, f := range h.Fields {
		for _, row := range snap.Fields[f] {
			for _, v := range row {
				binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
				buf.Write(word[:])
			}
		}
	}

	return enc.EncodeAll(buf.Bytes(), nil), nil
}

// DecodeGrid reverses EncodeGrid.
func DecodeGrid(payload []byte) (*grid.Grid, error) {
	_, dec, err := codec()
	if err != nil {
		return nil, fmt.Errorf("decode grid: init zstd: %w", err)
	}

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decode grid: decompress: %w", err)
	}
	if len(raw) < len(magic)+5 || string(raw[:len(magic)]) != magic {
		return nil, errors.New("decode grid: not a grid payload")
	}
	if v := raw[len(magic)]; v != version {
		return nil, fmt.Errorf("decode grid: unsupported version %d", v)
	}

	off := len(magic) + 1
	hlen := int(binary.LittleEndian.Uint32(raw[off : off+4]))
	off += 4
	if off+hlen > len(raw) {
		return nil, errors.New("decode grid: truncated header")
	}

	var h header
	if err := json.Unmarshal(raw[off:off+hlen], &h); err != nil {
		return nil, fmt.Errorf("decode grid: parse header: %w", err)
	}
	off += hlen

	rows, cols := len(h.Lats), len(h.Lons)
	want := len(h.Fields) * rows * cols * 8
	if len(raw)-off != want {
		return nil, fmt.Errorf("decode grid: data has %d bytes, want %d", len(raw)-off, want)
	}

	fields := make(map[grid.Field][][]float64, len(h.Fields))
	for _, f := range h.Fields {
		data := make([][]float64, rows)
		for i := range data {
			row := make([]float64, cols)
			for j := range row {
				row[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off : off+8]))
				off += 8
			}
			data[i] = row
		}
		fields[f] = data
	}

	g, err := grid.FromSnapshot(grid.Snapshot{
		Parameter: h.Parameter,
		Time:      h.Time,
		Lats:      h.Lats,
		Lons:      h.Lons,
		Fields:    fields,
	})
	if err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}
	return g, nil
}
