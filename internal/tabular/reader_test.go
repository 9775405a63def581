package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Basic(t *testing.T) {
	in := "email,selling_price\na@x.com,10\nb@x.com,20\n"

	res, err := Read(strings.NewReader(in), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "selling_price"}, res.Table.Columns)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, "a@x.com", res.Table.Rows[0]["email"].Raw)
	assert.True(t, res.Table.Rows[0]["email"].Present)
	assert.NotEmpty(t, res.ContentHash)
}

func TestRead_ContentHashStable(t *testing.T) {
	in := "email\na@x.com\n"

	first, err := Read(strings.NewReader(in), 0)
	require.NoError(t, err)
	second, err := Read(strings.NewReader(in), 0)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)

	other, err := Read(strings.NewReader("email\nb@x.com\n"), 0)
	require.NoError(t, err)
	assert.NotEqual(t, first.ContentHash, other.ContentHash)
}

func TestRead_RaggedRows(t *testing.T) {
	in := "email,status,total_amount\na@x.com,active\n"

	res, err := Read(strings.NewReader(in), 0)
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0]
	assert.True(t, row["status"].Present)
	assert.False(t, row["total_amount"].Present, "short row cell should be absent")
}

func TestRead_HeaderCleanup(t *testing.T) {
	in := "\uFEFF email , ,status\nx,y,active\n"

	res, err := Read(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "column_2", "status"}, res.Table.Columns)
}

func TestRead_DuplicateHeader(t *testing.T) {
	_, err := Read(strings.NewReader("email,email\na,b\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate header")
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_RowCeiling(t *testing.T) {
	in := "email\na@x.com\nb@x.com\nc@x.com\n"

	_, err := Read(strings.NewReader(in), 2)
	assert.ErrorIs(t, err, ErrTooManyRows)

	res, err := Read(strings.NewReader(in), 3)
	require.NoError(t, err)
	assert.Len(t, res.Table.Rows, 3)
}
