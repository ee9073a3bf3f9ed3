package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte(`[{"corpus":"statute","identifier":"1240"}]`)
	require.NoError(t, store.Upload(ctx, "dumps/statutes.json", bytes.NewReader(payload)))

	r, err := store.Download(ctx, "dumps/statutes.json")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "dumps/statutes.json"))
	_, err = store.Download(ctx, "dumps/statutes.json")
	assert.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Upload(context.Background(), "../outside.json", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "never-uploaded.json"))
}
