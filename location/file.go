package location

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// File stores the snapshot in a single regular file. Saves write a sibling
// temp file and rename it over the target, so readers never observe a
// partial snapshot.
type File struct {
	fs   afero.Fs
	path string
	perm os.FileMode
}

var _ Location = (*File)(nil)

// FileOption configures a File location.
type FileOption func(*File)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) FileOption {
	return func(f *File) { f.fs = fs }
}

// WithFileMode sets the permissions of newly written snapshots. Defaults to 0644.
func WithFileMode(perm os.FileMode) FileOption {
	return func(f *File) { f.perm = perm }
}

// NewFile returns a Location for the file at path. Nothing is created until
// the first Save.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{fs: afero.NewOsFs(), path: path, perm: 0o644}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *File) String() string {
	return f.path
}

// Path returns the snapshot file path.
func (f *File) Path() string {
	return f.path
}

// stat reports whether the file exists, returning ErrInvalid when the path
// names something other than a regular file.
func (f *File) stat() (bool, error) {
	info, err := f.fs.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if errors.Is(err, syscall.ENOTDIR) {
		return false, errors.Wrapf(ErrInvalid, "%s has a parent that is not a directory", f.path)
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", f.path)
	}
	if !info.Mode().IsRegular() {
		kind := "special file"
		if info.IsDir() {
			kind = "directory"
		}
		return true, errors.Wrapf(ErrInvalid, "%s is a %s", f.path, kind)
	}
	return true, nil
}

func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exists, err := f.stat()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	return data, nil
}

func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := f.stat(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(f.path)+".tmp-"+uuid.NewString())
	if err := f.writeFile(tmp, data); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		_ = f.fs.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func (f *File) writeFile(name string, data []byte) error {
	fh, err := f.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.perm)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return errors.Wrapf(err, "sync %s", name)
	}
	return errors.Wrapf(fh.Close(), "close %s", name)
}
