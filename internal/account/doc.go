// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package account implements credential management for OpenGate.
//
// The package is built around four pieces:
//   - Account - a single credential record, keyed by the lower-cased
//     player name
//   - Repository - durable persistence (see the postgres subpackage)
//   - Cache - a bounded-lifetime in-memory map used to avoid a store
//     round-trip on every lookup
//   - Service - the orchestrator: resolves names through the cache,
//     verifies passwords, and keeps cache and store coherent across
//     register, update, and unregister operations
//
// Reads may be served from the cache; mutations always consult the store
// first so they never act on stale cached state. A successful mutation
// updates the cache before returning, so a caller that observes success
// also observes the new state on its next resolve.
package account
