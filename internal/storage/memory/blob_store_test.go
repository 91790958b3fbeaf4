package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "renders/c1.dot", "text/vnd.graphviz", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "memory://renders/c1.dot", uri)

	payload[0] = 'C'
	body, kind, ok := store.Object("renders/c1.dot")
	require.True(t, ok)
	require.Equal(t, "content", string(body))
	require.Equal(t, "text/vnd.graphviz", kind)

	body[0] = 'X'
	again, _, _ := store.Object("renders/c1.dot")
	require.Equal(t, "content", string(again))

	_, _, ok = store.Object("missing")
	require.False(t, ok)
	_, err = store.PutObject(context.Background(), "", "text/plain", bytes.NewReader(nil))
	require.Error(t, err)
}
