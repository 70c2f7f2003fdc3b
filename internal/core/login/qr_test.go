package login

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQR(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mt, mt))
	return path
}

func TestLatestQR_PicksNewestByModTime(t *testing.T) {
	dir := t.TempDir()
	writeQR(t, dir, "qr_xhs_old.png", 2*time.Hour)
	writeQR(t, dir, "qr_dy_newest.png", time.Minute)
	writeQR(t, dir, "qr_wb_older.png", time.Hour)

	art, ok := LatestQR(dir)
	require.True(t, ok)
	assert.Equal(t, "qr_dy_newest.png", art.File)
}

func TestLatestQR_LegacyUppercaseExtension(t *testing.T) {
	// Hand-dropped screenshots use an uppercase extension.
	dir := t.TempDir()
	writeQR(t, dir, "SCREENSHOT.PNG", time.Minute)

	art, ok := LatestQR(dir)
	require.True(t, ok)
	assert.Equal(t, "SCREENSHOT.PNG", art.File)
}

func TestLatestQR_EmptyDir(t *testing.T) {
	_, ok := LatestQR(t.TempDir())
	assert.False(t, ok)
}

func TestLatestQR_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, ok := LatestQR(dir)
	assert.False(t, ok)
}

func TestFindQR_MatchesSessionID(t *testing.T) {
	dir := t.TempDir()
	writeQR(t, dir, "qr_xhs_aaa.png", time.Minute)
	want := writeQR(t, dir, "qr_dy_bbb.png", time.Hour)

	art, ok := FindQR(dir, "bbb")
	require.True(t, ok)
	assert.Equal(t, want, art.Path)

	_, ok = FindQR(dir, "ccc")
	assert.False(t, ok)
}
