package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Compressed wraps s so that values larger than threshold bytes are stored
// gzip-compressed. Reads detect compressed values by their gzip header, so
// values written before compression was enabled stay readable. A threshold
// of zero or less disables compression and returns s unchanged.
func Compressed(s Store, threshold int) Store {
	if threshold <= 0 {
		return s
	}
	return &compressed{base: s, threshold: threshold}
}

type compressed struct {
	base      Store
	threshold int
}

func (c *compressed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.base.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}

	r, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "open compressed %s", key)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", key)
	}
	return out, nil
}

func (c *compressed) Set(ctx context.Context, key string, value []byte) error {
	if len(value) <= c.threshold {
		return c.base.Set(ctx, key, value)
	}

	var buf bytes.Buffer
	w := pgzip.NewWriter(&buf)
	if _, err := w.Write(value); err != nil {
		return errors.Wrapf(err, "compress %s", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "compress %s", key)
	}
	return c.base.Set(ctx, key, buf.Bytes())
}

// Ping forwards to the wrapped store when it supports health checks.
func (c *compressed) Ping(ctx context.Context) error {
	if p, ok := c.base.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
