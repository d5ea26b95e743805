package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ProjectRoot locates the repository root by walking upwards from this
// source file to the first directory holding go.mod or .git. It falls back
// to the working directory.
func ProjectRoot() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		if root, found := walkUp(filepath.Dir(file), isModuleRoot); found {
			return root, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// ProjectPath joins the repository root with rel.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}
