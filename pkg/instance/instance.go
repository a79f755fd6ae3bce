package instance

import (
	"os"
	"strings"
)

// GetID identifies the running process for log correlation. It prefers the
// platform dyno name, then WORKER_ID, then the hostname, then "<kind>-0".
func GetID(kind string) string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if kind == "" {
		kind = "local"
	}
	return kind + "-0"
}
