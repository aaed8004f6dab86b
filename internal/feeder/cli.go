package feeder

import (
	"fmt"

	"github.com/okian/stride/pkg/logger"
)

// SetupLogging initialises the global logger for a feed run. A non-empty
// logFile also writes to a rotating file.
func SetupLogging(logFile string, verbose bool) error {
	if err := logger.Init(logger.WithFile(logFile)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return fmt.Errorf("failed to set log level: %w", err)
		}
	}
	return nil
}
