// Package cli holds the opscomposer subcommands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/logging"
	"github.com/aydocorp/opscomposer/internal/mission"
)

// ConfigDirFlag names the persistent flag locating opscomposer.cfg.json.
const ConfigDirFlag = "config-dir"

// session is the per-command runtime: loaded config and configured logging.
type session struct {
	logs    *logging.SlogManager
	logFile *os.File
	logPath string
	logger  *slog.Logger
	mission *mission.Context
}

// start loads configuration and sets up logging for appName. Records go to a
// timestamped file under logsDir. When the file cannot be created they go to
// stdout, or nowhere when the terminal belongs to the UI.
func start(cmd *cobra.Command, appName string, ownsTerminal bool) (*session, error) {
	dir, _ := cmd.Flags().GetString(ConfigDirFlag)
	if dir == "" {
		dir = "."
	}
	if err := config.Load(dir); err != nil {
		return nil, err
	}

	s := &session{
		logs:    logging.NewSlogManager(),
		mission: mission.NewContext(),
	}

	var out io.Writer
	var fileErr error
	logDir := logsDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fileErr = err
	} else {
		s.logPath = logging.LogFilePath(logDir, appName, time.Now())
		f, err := os.OpenFile(s.logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fileErr = err
		} else {
			s.logFile = f
			out = f
		}
	}
	if out == nil && ownsTerminal {
		out = io.Discard
	}

	opts := []logging.Option{logging.WithContext(s.mission.Attrs)}
	var gelfErr error
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGELFWriter(config.GetString("graylog.address"))
		if err != nil {
			gelfErr = err
		} else {
			opts = append(opts, logging.WithGELF(w))
		}
	}

	s.logs.Setup(out, config.GetString("logLevel"), opts...)
	s.logger = s.logs.Logger()
	slog.SetDefault(s.logger)

	if fileErr != nil {
		s.logger.Warn("Failed to open log file", "dir", logDir, "error", fileErr)
	}
	if gelfErr != nil {
		s.logger.Warn("Failed to connect to Graylog", "address", config.GetString("graylog.address"), "error", gelfErr)
	}
	return s, nil
}

func (s *session) close() {
	if err := s.logs.Close(); err != nil {
		s.logger.Warn("Failed to close Graylog writer", "error", err)
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// logsDir returns the directory log files and metric backups are written to.
func logsDir() string {
	return filepath.Clean(config.GetString("logsDir"))
}

func describeLog(s *session) string {
	if s.logPath == "" {
		return "stdout"
	}
	return fmt.Sprintf("%q", s.logPath)
}
