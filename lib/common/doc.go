// Package common provides the configuration and logging shared by the store
// and the command line interface.
//
// Key Components:
//
//   - Config: Selects and parameterizes the storage engine (memory, pebble or bolt)
//     and the log level. NewEngine opens the selected db.Engine, EngineFactory
//     adapts it to store.EngineFactory.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
//     Library packages obtain their logger with logger.GetLogger("<name>"),
//     InitLoggers installs the factory and sets the level of all of them.
package common
