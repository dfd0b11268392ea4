package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Write(t *testing.T) {
	var buf bytes.Buffer
	err := Table{
		Headers: []string{"NAME", "CONFIGURED"},
		Rows:    [][]string{{"Walrus", "yes"}, {"Pinata", "no"}},
	}.Write(&buf)
	require.NoError(t, err)

	want := "NAME    CONFIGURED\n" +
		"----    ----------\n" +
		"Walrus  yes\n" +
		"Pinata  no\n"
	assert.Equal(t, want, buf.String())
}

func TestTable_WriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table{Headers: []string{"ID"}, Empty: "No events found"}.Write(&buf))
	assert.Contains(t, buf.String(), "No events found")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Nba Topshot", Title("nba-topshot"))
	assert.Equal(t, "Conversion", Title("conversion"))
	assert.Equal(t, "Matrix World", Title("matrix_world"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
