package pinmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupXB200(t *testing.T) {
	board, err := Lookup("xb200")
	require.NoError(t, err)
	assert.Equal(t, "xb200", board.Name)
	assert.Len(t, board.Pins(), 12)

	num, ok := board.Pin("J7-1")
	require.True(t, ok)
	assert.Equal(t, uint8(10), num)

	// lookup is tolerant of naming style
	num, ok = board.Pin("j16_6")
	require.True(t, ok)
	assert.Equal(t, uint8(24), num)

	_, ok = board.Pin("J99-1")
	assert.False(t, ok)
}

func TestLookupXB100(t *testing.T) {
	board, err := Lookup("XB100")
	require.NoError(t, err)
	assert.Len(t, board.Pins(), 14)

	num, ok := board.Pin("LED-D1")
	require.True(t, ok)
	assert.Equal(t, uint8(17), num)
}

func TestLookupUnknownBoard(t *testing.T) {
	_, err := Lookup("xb999")
	require.Error(t, err)
}

func TestParseBoardRejectsBadRows(t *testing.T) {
	src := []byte(`---
board: broken
---

| Pin  | Number |
| ---- | ------ |
| P1   | 33     |
`)
	_, err := parseBoard(src)
	require.Error(t, err)
}

func TestParseBoardRejectsDuplicates(t *testing.T) {
	src := []byte(`---
board: broken
---

| Pin  | Number |
| ---- | ------ |
| P1   | 1      |
| p1   | 2      |
`)
	_, err := parseBoard(src)
	require.Error(t, err)
}

func TestParseBoardNeedsFrontMatter(t *testing.T) {
	src := []byte(`
| Pin  | Number |
| ---- | ------ |
| P1   | 1      |
`)
	_, err := parseBoard(src)
	require.Error(t, err)
}
