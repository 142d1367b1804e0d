package logstore

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
)

// Export writes the full buffer to path as one ordered JSON array.
// A path ending in .gz is gzip-compressed.
func (s *Store) Export(path string) error {
	entries := s.Snapshot()

	data, err := sonic.ConfigDefault.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode logs: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(file)
		if _, err := gz.Write(data); err != nil {
			gz.Close()
			return fmt.Errorf("write export: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("flush export: %w", err)
		}
		return nil
	}

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
