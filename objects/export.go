package objects

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	exportDirPerm  = 0o750
	exportFilePerm = 0o644
)

// Export writes obj to name on fsys. The file appears atomically: content is
// written to a temporary file in the same directory and renamed into place.
func Export(fsys afero.Fs, name string, obj *Object) error {
	if name == "" {
		return errors.New("export path is empty")
	}
	dir := filepath.Dir(name)
	if err := fsys.MkdirAll(dir, exportDirPerm); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fsys, dir, "export-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := obj.WriteTo(tmp); err != nil {
		tmp.Close()
		_ = fsys.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return err
	}
	if err := fsys.Chmod(tmpPath, exportFilePerm); err != nil {
		_ = fsys.Remove(tmpPath)
		return err
	}
	if err := fsys.Rename(tmpPath, name); err != nil {
		_ = fsys.Remove(tmpPath)
		return err
	}
	return nil
}
