package login

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadash/internal/platform/engine"
)

func TestSessionStore_SaveLoadRoundtrip(t *testing.T) {
	s := NewSessionStore(t.TempDir())

	cookies := []Cookie{
		{Name: "web_session", Value: "abc123", Domain: ".xiaohongshu.com", Path: "/", Expires: 1756339200, HttpOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "a1", Value: "dev-token", Domain: ".xiaohongshu.com", Path: "/"},
	}
	require.NoError(t, s.Save(engine.PlatformXHS, cookies))

	got, err := s.Load(engine.PlatformXHS)
	require.NoError(t, err)
	assert.Equal(t, cookies, got)
}

func TestSessionStore_SaveOverwritesWholesale(t *testing.T) {
	s := NewSessionStore(t.TempDir())

	require.NoError(t, s.Save(engine.PlatformWeibo, []Cookie{
		{Name: "stale-1", Value: "x"},
		{Name: "stale-2", Value: "y"},
	}))
	require.NoError(t, s.Save(engine.PlatformWeibo, []Cookie{
		{Name: "fresh", Value: "z"},
	}))

	got, err := s.Load(engine.PlatformWeibo)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Name)
}

func TestSessionStore_LoadMissing(t *testing.T) {
	s := NewSessionStore(t.TempDir())
	_, err := s.Load(engine.PlatformZhihu)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSessionStore_PlatformsDoNotCollide(t *testing.T) {
	s := NewSessionStore(t.TempDir())

	require.NoError(t, s.Save(engine.PlatformXHS, []Cookie{{Name: "xhs", Value: "1"}}))
	require.NoError(t, s.Save(engine.PlatformDouyin, []Cookie{{Name: "dy", Value: "2"}}))

	xhs, err := s.Load(engine.PlatformXHS)
	require.NoError(t, err)
	dy, err := s.Load(engine.PlatformDouyin)
	require.NoError(t, err)
	assert.Equal(t, "xhs", xhs[0].Name)
	assert.Equal(t, "dy", dy[0].Name)
}

func TestSessionStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionStore(dir)
	require.NoError(t, s.Save(engine.PlatformBilibili, []Cookie{{Name: "b", Value: "1"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bili.json", entries[0].Name())
}
