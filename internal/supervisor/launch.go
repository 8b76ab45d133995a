package supervisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ErrBinaryNotFound reports that none of the candidate paths is executable.
var ErrBinaryNotFound = errors.New("unable to find renderer binary")

// Geometry is the overlay window rectangle passed to the renderer.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// LaunchSpec builds the renderer invocation
// `binary xpos ypos width height [process]`.
type LaunchSpec struct {
	// CommandLine, when set, replaces the binary lookup. It is split with
	// shell quoting rules and may carry extra leading arguments.
	CommandLine string
	// Candidates are tried in order; the first executable file wins.
	Candidates   []string
	Geometry     Geometry
	TrackProcess string
}

// Command implements CommandFactory.
func (s LaunchSpec) Command() ([]string, error) {
	var argv []string
	if line := strings.TrimSpace(s.CommandLine); line != "" {
		parser := shellwords.NewParser()
		parser.ParseEnv = true
		words, err := parser.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parse renderer command: %w", err)
		}
		if len(words) == 0 {
			return nil, errors.New("parse renderer command: no program")
		}
		argv = words
	} else {
		binary, err := FindBinary(s.Candidates)
		if err != nil {
			return nil, err
		}
		argv = []string{binary}
	}
	argv = append(argv,
		strconv.Itoa(s.Geometry.X),
		strconv.Itoa(s.Geometry.Y),
		strconv.Itoa(s.Geometry.Width),
		strconv.Itoa(s.Geometry.Height),
	)
	if track := strings.TrimSpace(s.TrackProcess); track != "" {
		argv = append(argv, track)
	}
	return argv, nil
}

// FindBinary returns the first candidate that is an executable regular file.
// A leading ~ is expanded to the home directory.
func FindBinary(candidates []string) (string, error) {
	for _, candidate := range candidates {
		path := expandHome(strings.TrimSpace(candidate))
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return path, nil
	}
	return "", fmt.Errorf("%w (tried %d candidates)", ErrBinaryNotFound, len(candidates))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
