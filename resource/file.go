package resource

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
)

// FileReader reads a served file
type FileReader interface {
	// ReadFile returns the file with CRLF line endings
	// Fails with ResourceErrorFileNotFound when there is nothing to serve
	ReadFile(path string) ([]byte, error)
}

// DiskFiles serves files below Root
type DiskFiles struct {
	Root string
}

// NewDiskFiles creates a FileReader rooted at root
func NewDiskFiles(root string) *DiskFiles {
	return &DiskFiles{Root: root}
}

// ReadFile reads path relative to the root
func (d *DiskFiles) ReadFile(path string) ([]byte, error) {
	full, err := resolve(d.Root, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewResourceError(errors.ResourceErrorFileNotFound, path+" is a directory", nil)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, statError(path, err)
	}

	return protocol.NormalizeLineEndings(data), nil
}

// resolve joins path to root, refusing paths that climb out of it
func resolve(root, path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.NewResourceError(
			errors.ResourceErrorFileNotFound,
			fmt.Sprintf("%s is outside the document root", path),
			nil,
		)
	}
	return filepath.Join(root, clean), nil
}

func statError(path string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewResourceError(errors.ResourceErrorFileNotFound, path, err)
	}
	return errors.NewResourceError(errors.ResourceErrorReadFailure, path, err)
}
