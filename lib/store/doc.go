// Package store provides the dataset level interface of the triple store: creating,
// listing and deleting named datasets and running query and write transactions on
// them. It is the layer applications and the CLI talk to.
//
// The package focuses on:
//   - A unified interface (IStore) for dataset lifecycle and transactions
//   - Pluggable storage backend architecture through the EngineFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction. Every dataset lives in its own namespace
//     of a db.Engine, so datasets share nothing but the engine.
//
//   - Error System: A structured error reporting mechanism using typed return codes
//     (RetCode) for lifecycle failures such as a missing or already existing dataset.
//     Errors raised inside a transaction keep the kinds defined in package model.
//
//   - EngineFactory: A function type that abstracts the creation of the underlying
//     db.Engine (memory, pebble or bolt).
//
// Implementations:
//
//	The local store (lstore) runs in-process on a single engine and serializes the
//	write transactions of each dataset with a lockmgr.ILockManager.
//	Available in the "github.com/ValentinKolb/dTriple/lib/store/lstore" package.
package store
