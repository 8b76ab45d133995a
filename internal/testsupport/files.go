package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteExecutable creates an executable shell script at path with body as
// its contents after the shebang line.
func WriteExecutable(t testing.TB, path, body string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	script := "#!/bin/sh\n" + body
	if body == "" {
		script += "exit 0\n"
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
