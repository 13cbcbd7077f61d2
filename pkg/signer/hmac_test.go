package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnersCursor(t *testing.T) {
	c := NewHMAC([]byte("secret"))
	tok := c.EncodeWinnersCursor(1740830400123456, "cv37hq2b1n8s")

	at, id, err := c.DecodeWinnersCursor(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1740830400123456), at)
	assert.Equal(t, "cv37hq2b1n8s", id)
}

func TestWinnersCursorRejectsTampering(t *testing.T) {
	c := NewHMAC([]byte("secret"))
	tok := c.EncodeWinnersCursor(42, "s1")

	_, _, err := NewHMAC([]byte("other")).DecodeWinnersCursor(tok)
	assert.Error(t, err)

	_, _, err = c.DecodeWinnersCursor("not-base64!")
	assert.Error(t, err)

	_, _, err = c.DecodeWinnersCursor("")
	assert.Error(t, err)

	b := []byte(tok)
	b[0] ^= 'A' ^ 'B'
	_, _, err = c.DecodeWinnersCursor(string(b))
	assert.Error(t, err)
}
