// Package attachments stores candidate files under a per-candidate folder.
package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Saver writes files to <root>/<CANDIDATE NAME>/<filename>.
type Saver struct {
	root string
}

func NewSaver(root string) *Saver {
	return &Saver{root: root}
}

func (s *Saver) Root() string { return s.root }

// Dir returns the folder used for a candidate: the name upper-cased, with
// characters that would escape the root replaced.
func (s *Saver) Dir(candidateName string) string {
	return filepath.Join(s.root, folderName(candidateName))
}

// Save writes data, replacing any file of the same name, and returns the path written.
func (s *Saver) Save(candidateName, filename string, data []byte) (string, error) {
	dir := s.Dir(candidateName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating folder for %s: %w", candidateName, err)
	}

	path := filepath.Join(dir, fileName(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

func folderName(name string) string {
	name = strings.TrimSpace(unsafeChars.Replace(strings.ToUpper(name)))
	return safeElem(name, "UNKNOWN")
}

func fileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(unsafeChars.Replace(filepath.Base(name)))
	return safeElem(name, "attachment")
}

func safeElem(name, fallback string) string {
	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}
