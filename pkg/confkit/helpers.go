package confkit

import (
	"os"
	"path/filepath"
)

const maxWalkDepth = 8

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func isModuleRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git"))
}

// walkUp calls visit for start and each parent until visit returns true,
// the module root has been visited or maxWalkDepth is reached.
func walkUp(start string, visit func(dir string) bool) (string, bool) {
	dir := start
	for i := 0; i < maxWalkDepth; i++ {
		if visit(dir) {
			return dir, true
		}
		if isModuleRoot(dir) {
			return dir, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}
