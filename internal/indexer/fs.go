package indexer

import (
	"io/fs"
	"os"
)

// FileSystem is the engine's view of the disk: stat, read a whole file, and
// list a directory's immediate children.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

// OSFileSystem reads the real filesystem. Stat follows symlinks.
type OSFileSystem struct{}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (OSFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
