package utils

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURL(t *testing.T) {
	assert.Equal(t, HashURL("https://a.example"), HashURL("https://a.example"))
	assert.NotEqual(t, HashURL("https://a.example"), HashURL("https://b.example"))
	assert.Len(t, HashURL("x"), 64)
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://example.com/gallery/index.html")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "../img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/img/a.png", got)

	got, err = ToAbsoluteURL(base, "//cdn.example.com/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b.jpg", got)
}

func TestMD5Hex(t *testing.T) {
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", MD5Hex([]byte("abc")))
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
