// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout the application,
// facilitating consistent and DRY testing across the codebase. Instead of defining
// inline mocks in individual test files, these standardized mock implementations
// can be reused.
//
// Each mock exposes function fields (XxxFn) for per-test behavior overrides
// and keeps a small in-memory default implementation behind them, so simple
// tests need no setup at all.
package mocks
