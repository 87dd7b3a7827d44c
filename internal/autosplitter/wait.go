package autosplitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// WaitInterval is how often WaitForFile checks for the record file.
var WaitInterval = time.Second

// WaitForFile blocks until path exists or ctx is cancelled. The file not
// existing yet is normal: the game may not be running.
func WaitForFile(ctx context.Context, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(WaitInterval)
	defer ticker.Stop()

	logged := false
	for {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if logged {
				logger.Info("snapshot file appeared", "path", path)
			}
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat snapshot file: %w", err)
		case !logged:
			logger.Info("waiting for snapshot file", "path", path)
			logged = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReadFile decodes the record currently in the file at path.
func ReadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()

	buf := make([]byte, Size)
	n, err := f.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Record{}, fmt.Errorf("read snapshot: %w", err)
	}
	if n < Size {
		return Record{}, fmt.Errorf("snapshot file %s: %d of %d bytes", path, n, Size)
	}
	return Decode(buf)
}
