package dxf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Open reads the drawing at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "open %s", path)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes the drawing to path. The file is replaced atomically, so a
// failed save leaves any previous file untouched.
func (d *Document) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".*.dxf.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "save %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := d.Write(tmp); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "chmod %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "save %s", path)
	}
	return nil
}

// Edit opens the drawing at in, passes it to fn and saves it to out.
// Nothing is written when fn fails. in and out may be the same path.
func Edit(in, out string, fn func(*Document) error) error {
	doc, err := Open(in)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return doc.Save(out)
}
