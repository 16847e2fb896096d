package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAll_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	data, err := ReadAll(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestReadAll_DecodedPathFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "月报 2025.csv"), []byte("x"), 0o644))

	data, err := ReadAll(context.Background(), filepath.Join(dir, "%E6%9C%88%E6%8A%A5%202025.csv"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestReadAll_Missing(t *testing.T) {
	_, err := ReadAll(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadAll_Stdin(t *testing.T) {
	old := Stdin
	t.Cleanup(func() { Stdin = old })
	Stdin = strings.NewReader("from stdin")

	data, err := ReadAll(context.Background(), Stdio)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(data))
}

func TestReadAll_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.xlsx" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote bytes"))
	}))
	defer srv.Close()

	data, err := ReadAll(context.Background(), srv.URL+"/book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "remote bytes", string(data))

	_, err = ReadAll(context.Background(), srv.URL+"/missing.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestWriteAll(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "out.xlsx")
	require.NoError(t, WriteAll(dst, []byte("one")))
	require.NoError(t, WriteAll(dst, []byte("two")))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteAll_Stdout(t *testing.T) {
	old := Stdout
	t.Cleanup(func() { Stdout = old })
	var buf bytes.Buffer
	Stdout = &buf

	require.NoError(t, WriteAll(Stdio, []byte("result")))
	assert.Equal(t, "result", buf.String())
}

func TestName(t *testing.T) {
	assert.Equal(t, "stdin", Name(Stdio))
	assert.Equal(t, "book.xlsx", Name("https://example.com/files/book.xlsx?x=1"))
	assert.Equal(t, "download", Name("https://example.com/"))
	assert.Equal(t, "in.csv", Name("/data/in.csv"))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "一月-汇总.xlsx"), OutputName(filepath.Join("data", "一月.xls"), "汇总", ".xlsx"))
	assert.Equal(t, "book-汇总.csv", OutputName("https://example.com/book.xlsx", "汇总", ".csv"))
	assert.Equal(t, "stdin-汇总.xlsx", OutputName(Stdio, "汇总", ".xlsx"))
}
