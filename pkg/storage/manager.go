package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	errs "sancg/pkg/errors"
)

// Manager writes downloaded files below a base directory. Existing files are
// never overwritten.
type Manager struct {
	baseDir string
}

// NewManager creates a storage manager rooted at baseDir. Directories are
// created lazily on the first write.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: baseDir}
}

// MaxFilenameBytes is the longest file name most filesystems accept
const MaxFilenameBytes = 255

// SanitizeFilename replaces path separators so a display name cannot escape
// its directory, then shortens names longer than MaxFilenameBytes. The
// extension is kept and the stem is cut on a rune boundary.
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if len(name) <= MaxFilenameBytes {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= MaxFilenameBytes {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	limit := MaxFilenameBytes - len(ext)
	for limit > 0 && !utf8.RuneStart(stem[limit]) {
		limit--
	}
	return stem[:limit] + ext
}

// Path returns the destination of filename inside dir
func (m *Manager) Path(dir, filename string) string {
	return filepath.Join(m.baseDir, dir, SanitizeFilename(filename))
}

// Exists checks whether filename is already present in dir
func (m *Manager) Exists(dir, filename string) bool {
	info, err := os.Stat(m.Path(dir, filename))
	return err == nil && !info.IsDir()
}

// Save writes r to dir/filename. The data goes to a temporary file in the
// same directory first and is renamed into place once complete.
func (m *Manager) Save(r io.Reader, dir, filename string) (string, error) {
	path := m.Path(dir, filename)
	target := filepath.Dir(path)

	if err := os.MkdirAll(target, 0755); err != nil {
		return "", fsError("failed to create output directory", err)
	}

	out, err := os.CreateTemp(target, ".download-*.tmp")
	if err != nil {
		return "", fsError("failed to create temporary file", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fsError("failed to save file data", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fsError("failed to close file", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fsError("failed to set file mode", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fsError("failed to rename temporary file", err)
	}

	return path, nil
}

func fsError(message string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return errs.New(errs.ErrorTypePermission, message, err)
	}
	return errs.New(errs.ErrorTypeDownload, message, err)
}
