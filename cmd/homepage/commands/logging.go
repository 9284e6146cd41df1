package commands

import (
	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// InitLogger sets up the global logger for verbosity, honouring log.json.
// A config that fails to load falls back to console output; the command
// that needs the config reports the error itself.
func InitLogger(verbosity int) error {
	jsonOutput := false
	if cfg, err := am.Load(); err == nil {
		jsonOutput = cfg.Log.JSON
	}
	if err := logger.Initialize(jsonOutput, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}
