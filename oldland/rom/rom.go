// Package rom loads flat binary program images for pre-loading into the
// machine's RAM before execution begins.
package rom

import (
	"fmt"
	"log/slog"
	"os"
)

// Load reads a flat binary image. There is no header or relocation;
// the image is placed at the reset vector as-is. A nil logger falls
// back to slog.Default.
func Load(path string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load ROM image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("load ROM image %s: empty file", path)
	}
	if len(data)%4 != 0 {
		logger.Warn("ROM image size is not a multiple of the instruction width",
			"path", path, "size", len(data))
	}
	logger.Debug("loaded ROM image", "path", path, "size", len(data))
	return data, nil
}
