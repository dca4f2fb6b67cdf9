package util

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dTriple/lib/common"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/ValentinKolb/dTriple/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strconv"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupStoreFlags adds the storage and logging flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "engine"
	cmd.PersistentFlags().String(key, string(db.ImplBolt), WrapString("The storage engine to use (memory, pebble, bolt). The memory engine loses all data when the command exits"))

	key = "data-dir"
	cmd.PersistentFlags().String(key, "./data", WrapString("The data directory of the persistent engines"))

	key = "no-sync"
	cmd.PersistentFlags().Bool(key, false, WrapString("Do not fsync after each write. Faster, but the last writes may be lost on a crash"))

	key = "open-timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("How long to wait for the data file lock in seconds (only for bolt, 0 waits forever)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dtriple")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the store configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		Engine:            db.Implementation(strings.ToLower(viper.GetString("engine"))),
		DataDir:           viper.GetString("data-dir"),
		NoSync:            viper.GetBool("no-sync"),
		OpenTimeoutSecond: viper.GetInt("open-timeout"),
		LogLevel:          viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// OpenStore binds the flags of cmd, initializes the loggers and opens the local store.
func OpenStore(cmd *cobra.Command) (store.IStore, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	config := GetConfig()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}
	return lstore.NewLocalStore(config.EngineFactory())
}

// Context returns the context of cmd, context.Background if none was set.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// RunWithStore returns a cobra RunE that opens the local store, runs fn and closes
// the store again, also when fn fails.
func RunWithStore(fn func(s store.IStore, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := OpenStore(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := s.Close(); err == nil {
				err = closeErr
			}
		}()
		return fn(s, cmd, args)
	}
}

// --------------------------------------------------------------------------
// Argument parsing
// --------------------------------------------------------------------------

// ParseValue parses a value argument of the form e:<id>, s:<text>, i:<int> or f:<float>.
func ParseValue(arg string) (model.Value, error) {
	kind, body, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("invalid value %q: must be e:<id>, s:<text>, i:<int> or f:<float>", arg)
	}
	switch kind {
	case "e":
		return ParseEntity(body)
	case "s":
		return model.StringLiteral(body), nil
	case "i":
		i, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", body, err)
		}
		return model.IntegerLiteral(i), nil
	case "f":
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", body, err)
		}
		return model.FloatLiteral(f), nil
	default:
		return nil, fmt.Errorf("invalid value kind %q: must be one of e, s, i, f", kind)
	}
}

// ParseEntity parses an entity id, written as 42, e:42 or <42>.
func ParseEntity(arg string) (model.Entity, error) {
	arg = strings.TrimPrefix(arg, "e:")
	arg = strings.TrimSuffix(strings.TrimPrefix(arg, "<"), ">")
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity %q: %w", arg, err)
	}
	return model.Entity(id), nil
}

// ParseAttribute validates an attribute name.
func ParseAttribute(arg string) (model.Attribute, error) {
	return model.NewAttribute(arg)
}
