// Package confkit holds the small helpers shared by the config loaders:
// path resolution, side-loaded config sections and .env handling.
package confkit

import (
	"os"
	"path/filepath"
)

// ResolvePath expands environment variables in file and, when the result is
// relative, joins it onto base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// Section is a config block whose body lives in its own file. The main
// config only names File; Hydrate fills Value.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate loads File (resolved against base) with loader. An empty File
// leaves the section untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}
