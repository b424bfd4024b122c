package storage_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

type record struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte) error  { return f.err }

func TestScope_Isolation(t *testing.T) {
	base := memory.New()
	ctx := context.Background()

	a := storage.Scope(base, "a")
	b := storage.Scope(base, "b")

	require.NoError(t, a.Set(ctx, storage.KeyCart, []byte(`[]`)))

	_, err := b.Get(ctx, storage.KeyCart)
	require.ErrorIs(t, err, storage.ErrNotFound)

	raw, err := base.Get(ctx, "client:a:cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}

func TestJSON_RoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	require.NoError(t, storage.SetJSON(ctx, s, "r", record{Name: "Tee", Qty: 2}))

	var got record
	ok, err := storage.GetJSON(ctx, s, "r", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, record{Name: "Tee", Qty: 2}, got)
}

func TestGetJSON_AbsentOrMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value *string
	}{
		{name: "absent"},
		{name: "corrupt", value: ptr(`{"name":`)},
		{name: "null", value: ptr(`null`)},
		{name: "empty", value: ptr(``)},
		{name: "wrong shape", value: ptr(`"just a string"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			ctx := context.Background()
			if tt.value != nil {
				require.NoError(t, s.Set(ctx, "r", []byte(*tt.value)))
			}

			var got record
			ok, err := storage.GetJSON(ctx, s, "r", &got)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGetJSON_BackendError(t *testing.T) {
	var got record
	ok, err := storage.GetJSON(context.Background(), failingStore{err: errors.New("boom")}, "r", &got)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "get r")
}

func TestSetJSON_BackendError(t *testing.T) {
	err := storage.SetJSON(context.Background(), failingStore{err: errors.New("boom")}, "r", record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set r")
}

func TestCompressed(t *testing.T) {
	base := memory.New()
	s := storage.Compressed(base, 64)
	ctx := context.Background()

	small := []byte(`{"name":"Tee"}`)
	large := []byte(`"` + strings.Repeat("x", 500) + `"`)

	require.NoError(t, s.Set(ctx, "small", small))
	require.NoError(t, s.Set(ctx, "large", large))

	rawSmall, err := base.Get(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, small, rawSmall)

	rawLarge, err := base.Get(ctx, "large")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(rawLarge, []byte{0x1f, 0x8b}))
	assert.Less(t, len(rawLarge), len(large))

	got, err := s.Get(ctx, "large")
	require.NoError(t, err)
	assert.Equal(t, large, got)

	got, err = s.Get(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, small, got)
}

func TestCompressed_Disabled(t *testing.T) {
	base := memory.New()
	assert.Same(t, base, storage.Compressed(base, 0))
}

func ptr(s string) *string { return &s }
