package desktop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/config"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

func TestDirectories(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		cfg := testDesktopConfig(t)
		cfg.ExternalDir = "/mnt/sdcard"
		dirs := NewDirectories(cfg)

		for _, tc := range []struct {
			dir  types.Directory
			path string
		}{
			{types.DirectoryDocuments, cfg.DocumentsDir},
			{types.DirectoryData, cfg.DataDir},
			{types.DirectoryLibrary, cfg.DataDir},
			{types.DirectoryCache, cfg.CacheDir},
			{types.DirectoryExternal, "/mnt/sdcard"},
			{types.DirectoryExternalStorage, "/mnt/sdcard"},
		} {
			t.Run(string(tc.dir), func(t *testing.T) {
				path, ok := dirs.ResolveDirectory(tc.dir)
				assert.True(t, ok)
				assert.Equal(t, tc.path, path)
			})
		}

		_, ok := dirs.ResolveDirectory(types.Directory("PICTURES"))
		assert.False(t, ok)
		assert.Equal(t, filepath.Join(os.TempDir(), cfg.AppName), dirs.TempDirectory())
		assert.Equal(t, filepath.Join(cfg.RuntimeDir, "microphone.lock"), dirs.MicrophoneLockPath())
	})

	t.Run("derived", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("XDG_DATA_HOME", filepath.Join(home, "xdg-data"))
		t.Setenv("XDG_RUNTIME_DIR", filepath.Join(home, "xdg-run"))
		dirs := NewDirectories(config.Desktop{AppName: "app"})

		path, ok := dirs.ResolveDirectory(types.DirectoryData)
		assert.True(t, ok)
		assert.Equal(t, filepath.Join(home, "xdg-data", "app"), path)

		_, ok = dirs.ResolveDirectory(types.DirectoryExternal)
		assert.False(t, ok)

		assert.Equal(t, filepath.Join(home, "xdg-run", "app"), dirs.Runtime)
	})
}
