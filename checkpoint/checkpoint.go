// Package checkpoint persists optimization snapshots so long-running
// embedding runs can resume after interruption.
//
// A snapshot file is self-describing: a fixed magic, a format version, and
// the compression algorithm precede the payload, so Load never needs to be
// told how a file was written. Writes go through a temporary file and a
// rename, so a crash mid-save never corrupts an existing snapshot.
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD compression (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	// ErrBadMagic indicates the file is not a snapshot file.
	ErrBadMagic = errors.New("checkpoint: bad magic")

	// ErrUnsupportedVersion indicates a snapshot written by a newer format.
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")

	// ErrUnknownCompression indicates an unrecognized compression byte.
	ErrUnknownCompression = errors.New("checkpoint: unknown compression")

	// ErrCorrupt indicates a payload that fails structural validation.
	ErrCorrupt = errors.New("checkpoint: corrupt snapshot")
)

var magic = [4]byte{'S', 'N', 'E', 'R'}

const formatVersion = 1

// header: magic (4) | version (1) | compression (1) | uncompressed size (4)
const headerSize = 10

// Snapshot captures everything needed to resume an optimization run:
// counters, the accepted coordinates, and the calibrated input state that
// would otherwise have to be recomputed.
type Snapshot struct {
	Iteration int     `json:"iteration"`
	Accepted  int     `json:"accepted"`
	Rejected  int     `json:"rejected"`
	Cost      float64 `json:"cost"`

	Rows        int       `json:"rows"`
	Dims        int       `json:"dims"`
	Coordinates []float64 `json:"coordinates"`

	Beta            []float64 `json:"beta,omitempty"`
	Probabilities   []float64 `json:"probabilities,omitempty"`
	ProbabilityKind uint8     `json:"probability_kind,omitempty"`
}

// Coords reconstructs the coordinate matrix. The snapshot's backing slice
// is shared, not copied.
func (s *Snapshot) Coords() *mat.Dense {
	return mat.NewDense(s.Rows, s.Dims, s.Coordinates)
}

// ProbabilityMatrix reconstructs the input probability matrix, or nil when
// the snapshot carries none.
func (s *Snapshot) ProbabilityMatrix() *mat.Dense {
	if s.Probabilities == nil {
		return nil
	}
	return mat.NewDense(s.Rows, s.Rows, s.Probabilities)
}

func (s *Snapshot) validate() error {
	if s.Rows <= 0 || s.Dims <= 0 {
		return fmt.Errorf("%w: %dx%d coordinates", ErrCorrupt, s.Rows, s.Dims)
	}
	if len(s.Coordinates) != s.Rows*s.Dims {
		return fmt.Errorf("%w: %d coordinate values for %dx%d", ErrCorrupt, len(s.Coordinates), s.Rows, s.Dims)
	}
	if s.Probabilities != nil && len(s.Probabilities) != s.Rows*s.Rows {
		return fmt.Errorf("%w: %d probability values for %d rows", ErrCorrupt, len(s.Probabilities), s.Rows)
	}
	if s.Beta != nil && len(s.Beta) != s.Rows {
		return fmt.Errorf("%w: %d precisions for %d rows", ErrCorrupt, len(s.Beta), s.Rows)
	}
	return nil
}

// Encode serializes the snapshot with the given compression.
func Encode(s *Snapshot, c Compression) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	payload, err := gojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: marshal snapshot: %w", err)
	}

	var body []byte
	switch c {
	case CompressionNone:
		body = payload
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: lz4 compress: %w", err)
		}
		if n == 0 {
			// Incompressible payload, store raw.
			c = CompressionNone
			body = payload
		} else {
			body = buf[:n]
		}
	case CompressionZSTD:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("checkpoint: zstd encoder: %w", err)
		}
		body = enc.EncodeAll(payload, nil)
		_ = enc.Close()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	out := make([]byte, headerSize+len(body))
	copy(out, magic[:])
	out[4] = formatVersion
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[6:], uint32(len(payload)))
	copy(out[headerSize:], body)
	return out, nil
}

// Decode parses a snapshot file produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[4])
	}
	c := Compression(data[5])
	size := binary.LittleEndian.Uint32(data[6:])
	body := data[headerSize:]

	var payload []byte
	switch c {
	case CompressionNone:
		payload = body
	case CompressionLZ4:
		payload = make([]byte, size)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: lz4 decompress: %w", err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case CompressionZSTD:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: zstd decoder: %w", err)
		}
		payload, err = dec.DecodeAll(body, make([]byte, 0, size))
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("checkpoint: zstd decompress: %w", err)
		}
		if uint32(len(payload)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	var s Snapshot
	if err := gojson.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal snapshot: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
