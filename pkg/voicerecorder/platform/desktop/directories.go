package desktop

import (
	"os"
	"path/filepath"

	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/config"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/mediarecorder"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

// Directories maps the directory categories onto per-user locations.
// EXTERNAL and EXTERNAL_STORAGE resolve only if configured.
type Directories struct {
	Documents string
	Data      string
	Cache     string
	External  string
	Runtime   string
	Temp      string
}

var _ mediarecorder.DirectoryResolver = Directories{}

func NewDirectories(cfg config.Desktop) Directories {
	home, _ := os.UserHomeDir()
	dirs := Directories{
		Documents: cfg.DocumentsDir,
		Data:      cfg.DataDir,
		Cache:     cfg.CacheDir,
		External:  cfg.ExternalDir,
		Runtime:   cfg.RuntimeDir,
		Temp:      filepath.Join(os.TempDir(), cfg.AppName),
	}
	if dirs.Documents == "" && home != "" {
		dirs.Documents = filepath.Join(xdgDir("XDG_DOCUMENTS_DIR", filepath.Join(home, "Documents")), cfg.AppName)
	}
	if dirs.Data == "" && home != "" {
		dirs.Data = filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), cfg.AppName)
	}
	if dirs.Cache == "" {
		if cacheDir, err := os.UserCacheDir(); err == nil {
			dirs.Cache = filepath.Join(cacheDir, cfg.AppName)
		}
	}
	if dirs.Runtime == "" {
		dirs.Runtime = filepath.Join(xdgDir("XDG_RUNTIME_DIR", os.TempDir()), cfg.AppName)
	}
	return dirs
}

func xdgDir(envName, fallback string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return fallback
}

func (d Directories) ResolveDirectory(dir types.Directory) (string, bool) {
	var path string
	switch dir {
	case types.DirectoryDocuments:
		path = d.Documents
	case types.DirectoryData, types.DirectoryLibrary:
		path = d.Data
	case types.DirectoryCache:
		path = d.Cache
	case types.DirectoryExternal, types.DirectoryExternalStorage:
		path = d.External
	}
	return path, path != ""
}

func (d Directories) TempDirectory() string {
	return d.Temp
}

func (d Directories) MicrophoneLockPath() string {
	return filepath.Join(d.Runtime, "microphone.lock")
}
