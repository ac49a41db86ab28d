// Package storage keeps uploaded product images on local disk.
package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrUnsupportedType = errors.New("unsupported image type")

var (
	allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Disk writes files under Root/Subdir and serves them from URLPrefix/Subdir.
type Disk struct {
	Root      string
	Subdir    string
	URLPrefix string
}

func NewDisk(root string) *Disk {
	return &Disk{Root: root, Subdir: "products", URLPrefix: "/media"}
}

// Save stores r under a unique name derived from name and returns its URL.
func (d *Disk) Save(name string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExt[ext] {
		return "", errors.Wrapf(ErrUnsupportedType, "%q", ext)
	}
	base = unsafeName.ReplaceAllString(base, "_")
	if len(base) > 80 {
		base = base[len(base)-80:]
	}
	fileName := uuid.NewString() + "_" + base

	dir := filepath.Join(d.Root, d.Subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write upload")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close upload")
	}
	return path.Join(d.URLPrefix, d.Subdir, fileName), nil
}

// Delete removes a file previously returned by Save. URLs outside this
// store are ignored, as are files that are already gone.
func (d *Disk) Delete(url string) error {
	prefix := path.Join(d.URLPrefix, d.Subdir) + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(d.Root, d.Subdir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete upload")
	}
	return nil
}
