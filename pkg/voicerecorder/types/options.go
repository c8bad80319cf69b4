package types

import (
	"strings"
)

// Directory is a platform-independent category of a storage root.
type Directory string

const (
	DirectoryUndefined       = Directory("")
	DirectoryDocuments       = Directory("DOCUMENTS")
	DirectoryData            = Directory("DATA")
	DirectoryLibrary         = Directory("LIBRARY")
	DirectoryCache           = Directory("CACHE")
	DirectoryExternal        = Directory("EXTERNAL")
	DirectoryExternalStorage = Directory("EXTERNAL_STORAGE")
)

func (d Directory) IsKnown() bool {
	switch d {
	case DirectoryDocuments,
		DirectoryData,
		DirectoryLibrary,
		DirectoryCache,
		DirectoryExternal,
		DirectoryExternalStorage:
		return true
	default:
		return false
	}
}

func ParseDirectory(s string) Directory {
	return Directory(strings.ToUpper(strings.TrimSpace(s)))
}

type RecordOptions struct {
	// Directory is where the recording is kept after stopping. If empty,
	// the recording is returned inline and the file is removed.
	Directory      Directory
	SubDirectory   string
	VolumeMetering bool
}

func (opts RecordOptions) HasDirectory() bool {
	return opts.Directory != DirectoryUndefined
}
