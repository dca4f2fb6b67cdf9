package common

import (
	"fmt"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/engines/bolt"
	"github.com/ValentinKolb/dTriple/lib/db/engines/memory"
	"github.com/ValentinKolb/dTriple/lib/db/engines/pebble"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/cockroachdb/errors"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// Config holds all parameters needed to open a store.
type Config struct {
	// Storage engine (memory, pebble, bolt)
	Engine db.Implementation
	// Data directory of the persistent engines
	DataDir string
	// Skip fsync after each committed batch
	NoSync bool
	// How long bolt waits for the file lock, 0 waits forever
	OpenTimeoutSecond int

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for missing or invalid values.
func (c *Config) Validate() error {
	switch c.Engine {
	case db.ImplMemory:
	case db.ImplPebble, db.ImplBolt:
		if c.DataDir == "" {
			return errors.Newf("engine %s needs a data directory", c.Engine)
		}
	default:
		return errors.Newf("invalid engine %q. must be one of %s, %s, %s", c.Engine, db.ImplMemory, db.ImplPebble, db.ImplBolt)
	}
	if c.OpenTimeoutSecond < 0 {
		return errors.Newf("open timeout must not be negative, got %d", c.OpenTimeoutSecond)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewEngine opens the engine selected by the configuration.
func (c *Config) NewEngine() (db.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Engine {
	case db.ImplPebble:
		e, err := pebble.NewEngine(pebble.Options{Dir: c.DataDir, NoSync: c.NoSync})
		if err != nil {
			return nil, err
		}
		return e, nil
	case db.ImplBolt:
		e, err := bolt.NewEngine(bolt.Options{
			Dir:     c.DataDir,
			NoSync:  c.NoSync,
			Timeout: time.Duration(c.OpenTimeoutSecond) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return memory.NewEngine(), nil
	}
}

// EngineFactory returns NewEngine as a store.EngineFactory.
func (c *Config) EngineFactory() store.EngineFactory {
	return c.NewEngine
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Engine", string(c.Engine))
	if c.Engine != db.ImplMemory {
		addField("Data Directory", c.DataDir)
		addField("Sync Writes", fmt.Sprintf("%t", !c.NoSync))
	}
	if c.Engine == db.ImplBolt {
		addField("Open Timeout", fmt.Sprintf("%d sec", c.OpenTimeoutSecond))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
