package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Required collects the names of required variables that are unset.
type Required struct {
	missing []string
}

func (r *Required) String(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *Required) Bytes(key string) []byte {
	return []byte(r.String(key))
}

// Err reports every missing variable at once.
func (r *Required) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(r.missing, ", "))
}

var ErrMissingEnv = errors.New("missing required env")
