// Package store persists a weighted index as one self-contained blob and
// keeps blobs in a file or in PostgreSQL.
//
// Blob layout:
//
//	0  magic   "VSMX"
//	4  version uint16
//	6  flags   uint16 (reserved)
//	8  length  uint64, compressed payload size
//	16 payload zstd(deterministic CBOR of index.Snapshot)
//	.. trailer BLAKE3-256 of everything before it
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

const (
	FormatVersion uint16 = 1
	HeaderSize           = 16
	ChecksumSize         = 32
)

var magic = []byte("VSMX")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Weights must round-trip bit for bit.
	encOptions.ShortestFloat = cbor.ShortestFloatNone
	encOptions.NaNConvert = cbor.NaNConvertNone
	encOptions.InfConvert = cbor.InfConvertNone
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxMapPairs:      1 << 27,
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}

	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes idx into a blob.
func Encode(idx *index.Index) ([]byte, error) {
	payload, err := encMode.Marshal(idx.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encoding index snapshot: %w", err)
	}
	compressed := encoder.EncodeAll(payload, nil)

	blob := make([]byte, HeaderSize, HeaderSize+len(compressed)+ChecksumSize)
	copy(blob[0:4], magic)
	binary.LittleEndian.PutUint16(blob[4:6], FormatVersion)
	binary.LittleEndian.PutUint16(blob[6:8], 0)
	binary.LittleEndian.PutUint64(blob[8:16], uint64(len(compressed)))
	blob = append(blob, compressed...)

	sum := blake3.Sum256(blob)
	return append(blob, sum[:]...), nil
}

// Decode verifies and deserializes a blob produced by Encode. Any
// structural problem is reported as ErrCorruptIndex.
func Decode(blob []byte) (*index.Index, error) {
	if len(blob) < HeaderSize+ChecksumSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", apperrors.ErrCorruptIndex, len(blob))
	}
	if !bytes.Equal(blob[0:4], magic) {
		return nil, fmt.Errorf("%w: bad magic bytes %x", apperrors.ErrCorruptIndex, blob[0:4])
	}
	if v := binary.LittleEndian.Uint16(blob[4:6]); v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", apperrors.ErrCorruptIndex, v)
	}
	length := binary.LittleEndian.Uint64(blob[8:16])
	if length != uint64(len(blob)-HeaderSize-ChecksumSize) {
		return nil, fmt.Errorf("%w: payload length %d does not match blob size", apperrors.ErrCorruptIndex, length)
	}

	body := blob[:len(blob)-ChecksumSize]
	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], blob[len(body):]) {
		return nil, fmt.Errorf("%w: checksum mismatch", apperrors.ErrCorruptIndex)
	}

	payload, err := decoder.DecodeAll(body[HeaderSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing payload: %v", apperrors.ErrCorruptIndex, err)
	}
	var snap index.Snapshot
	if err := decMode.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", apperrors.ErrCorruptIndex, err)
	}
	return index.FromSnapshot(snap)
}

// Checksum returns the hex BLAKE3 trailer of a blob, used as the index
// fingerprint.
func Checksum(blob []byte) string {
	if len(blob) < ChecksumSize {
		return ""
	}
	return fmt.Sprintf("%x", blob[len(blob)-ChecksumSize:])
}
