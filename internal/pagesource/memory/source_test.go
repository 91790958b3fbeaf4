package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkrank/internal/crawler"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	links := map[string][]string{"a": {"b", "c"}, "empty": {}}
	src := New(links)
	links["a"][0] = "mutated"

	got, err := src.Lookup(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, got)

	got, err = src.Lookup(context.Background(), "empty")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = src.Lookup(context.Background(), "nope")
	require.ErrorIs(t, err, crawler.ErrPageNotFound)
	require.Equal(t, 2, src.Len())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"links.yaml": "page1: [page2]\npage2: [page1, page3]\npage3: []\n",
		"links.toml": "page1 = [\"page2\"]\npage2 = [\"page1\", \"page3\"]\npage3 = []\n",
		"links.json": `{"page1":["page2"],"page2":["page1","page3"],"page3":[]}`,
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			src, err := LoadFile(path)
			require.NoError(t, err)
			require.Equal(t, 3, src.Len())
			got, err := src.Lookup(context.Background(), "page2")
			require.NoError(t, err)
			require.Equal(t, []string{"page1", "page3"}, got)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "read link map")

	txt := filepath.Join(dir, "links.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = LoadFile(txt)
	require.ErrorContains(t, err, "unsupported link map extension")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadFile(bad)
	require.ErrorContains(t, err, "decode link map bad.json")
}
