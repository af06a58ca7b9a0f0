package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrMalformedEncoding indicates an encoded record carries an impossible
// length prefix.
var ErrMalformedEncoding = errors.New("malformed encoding")

// ChunkMUS serializes Chunk values in MUS format.
var ChunkMUS = chunkMUS{}

// DocumentEntryMUS serializes DocumentEntry values in MUS format.
var DocumentEntryMUS = documentEntryMUS{}

// float32SliceMUS writes a varint length followed by fixed-width floats.
var float32SliceMUS = float32Slice{}

// Timestamps are stored as Unix microseconds.
var timeMUS = unixMicro{}

type unixMicro struct{}

func (unixMicro) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (unixMicro) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = time.UnixMicro(micros).UTC()
	return
}

func (unixMicro) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

type float32Slice struct{}

func (float32Slice) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (float32Slice) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = ErrMalformedEncoding
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (float32Slice) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Hash), bs)
	n += varint.Int.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += float32SliceMUS.Marshal(v.Embedding, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var (
		hash string
		n1   int
	)
	hash, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Hash = ContentHash(hash)
	v.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = ord.String.Size(string(v.Hash))
	size += varint.Int.Size(v.Ordinal)
	size += ord.String.Size(v.Text)
	size += float32SliceMUS.Size(v.Embedding)
	return size + timeMUS.Size(v.CreatedAt)
}

type documentEntryMUS struct{}

func (documentEntryMUS) Marshal(v DocumentEntry, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Hash), bs)
	n += ord.String.Marshal(string(v.DocType), bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return
}

func (documentEntryMUS) Unmarshal(bs []byte) (v DocumentEntry, n int, err error) {
	var (
		s  string
		n1 int
	)
	s, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Hash = ContentHash(s)
	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocType = SourceType(s)
	v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentEntryMUS) Size(v DocumentEntry) (size int) {
	size = ord.String.Size(string(v.Hash))
	size += ord.String.Size(string(v.DocType))
	size += varint.Int.Size(v.ChunkCount)
	return size + timeMUS.Size(v.CreatedAt)
}
