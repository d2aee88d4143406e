package dataset

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReaderTypesCells(t *testing.T) {
	input := "id,price,active,city,note\n1,9.99,true,tokyo,\n2,12.50,false,paris,null\n"
	r := NewCSVReader(strings.NewReader(input), CSVOptions{})

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "price", "active", "city", "note"}, header)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, 9.99, row["price"])
	assert.Equal(t, true, row["active"])
	assert.Equal(t, "tokyo", row["city"])
	assert.Nil(t, row["note"])

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), row["id"])
	assert.Equal(t, false, row["active"])
	assert.Nil(t, row["note"])

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, r.Rows())
}

func TestCSVReaderCustomDelimiterAndNulls(t *testing.T) {
	input := "a;b\n1;N/A\n"
	r := NewCSVReader(strings.NewReader(input), CSVOptions{
		Comma:      ';',
		NullTokens: []string{"n/a"},
	})

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["a"])
	assert.Nil(t, row["b"])
}

func TestCSVReaderMissingHeader(t *testing.T) {
	r := NewCSVReader(strings.NewReader(""), CSVOptions{})
	_, err := r.Header()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestCSVReaderEmptyColumnName(t *testing.T) {
	r := NewCSVReader(strings.NewReader("a,,c\n1,2,3\n"), CSVOptions{})
	_, err := r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty column name")
}

func TestCSVReaderRaggedRowFails(t *testing.T) {
	r := NewCSVReader(strings.NewReader("a,b\n1,2\n3\n"), CSVOptions{})

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.Error(t, err)
}

func TestCSVReaderReadAll(t *testing.T) {
	input := "x\n1\n2\n3\n"
	r := NewCSVReader(strings.NewReader(input), CSVOptions{})

	var sum int64
	err := r.ReadAll(func(row map[string]interface{}) error {
		sum += row["x"].(int64)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)
	assert.Equal(t, 3, r.Rows())
}

func TestOpenCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("n\n42\n"), 0o644))

	r, closeFn, err := OpenCSV(path, CSVOptions{})
	require.NoError(t, err)
	defer closeFn()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(42), row["n"])

	_, _, err = OpenCSV(filepath.Join(dir, "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}
