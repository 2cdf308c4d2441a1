package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ChecksumFileName is the standard name for checksum files.
const ChecksumFileName = "checksums.txt"

// GenerateChecksums writes a checksums.txt file at the root of dir
// containing SHA256 checksums of every artifact underneath it, with
// paths relative to dir. Entries are sorted so the file is reproducible
// for identical artifact sets.
func GenerateChecksums(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	var checksums []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if d.IsDir() || d.Name() == ChecksumFileName {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s for checksum: %w", path, err)
		}

		hash := sha256.Sum256(data)
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			relPath = path
		}
		checksums = append(checksums, fmt.Sprintf("%s  %s", hex.EncodeToString(hash[:]), relPath))
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(checksums)
	content := strings.Join(checksums, "\n") + "\n"

	checksumPath := filepath.Join(dir, ChecksumFileName)
	if err := os.WriteFile(checksumPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}

	slog.Debug("checksums generated",
		"file_count", len(checksums),
		"path", checksumPath,
	)
	return nil
}
