package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxExtLen = 8

// SaveUpload copies r into a new request-scoped temp file in dir, keeping the
// extension of filename so decoders can tell the container apart. The caller
// removes the returned path.
func SaveUpload(dir, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	out, err := os.CreateTemp(dir, "question-*"+uploadExt(filename))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	_, copyErr := out.ReadFrom(r)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(out.Name())
		if copyErr != nil {
			return "", fmt.Errorf("failed to save upload: %w", copyErr)
		}
		return "", fmt.Errorf("failed to save upload: %w", closeErr)
	}
	return out.Name(), nil
}

func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ".wav"
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ".wav"
		}
	}
	return ext
}

// AnswerFileName builds response_YYYYMMDD_HHMMSS_<suffix>.<ext>. The random
// suffix keeps two answers produced in the same second apart.
func AnswerFileName(now time.Time, ext string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("response_%s_%s.%s", now.Format("20060102_150405"), suffix, strings.TrimPrefix(ext, "."))
}
