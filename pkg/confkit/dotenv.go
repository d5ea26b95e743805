package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

// Environment switches understood by LoadDotenvOnce.
const (
	EnvDotenvFile     = "DIVWATCH_ENV_FILE"
	EnvDotenvDisable  = "DIVWATCH_NO_DOTENV"
	EnvDotenvOverload = "DIVWATCH_DOTENV_OVERLOAD"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads variables from a .env file once per process.
// DIVWATCH_ENV_FILE names the file explicitly; otherwise every .env between
// this package and the module root is read, nearest first. Variables already
// in the environment win unless DIVWATCH_DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv(EnvDotenvDisable) == "1" {
		return
	}

	load := godotenv.Load
	if os.Getenv(EnvDotenvOverload) == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv(EnvDotenvFile); envFile != "" {
		_ = load(envFile)
		return
	}

	for _, p := range dotenvCandidates() {
		_ = load(p)
	}
}

func dotenvCandidates() []string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return []string{".env"}
	}
	var out []string
	walkUp(filepath.Dir(file), func(dir string) bool {
		if p := filepath.Join(dir, ".env"); fileExists(p) {
			out = append(out, p)
		}
		return false
	})
	return out
}
