// Package state owns the canonical in-memory board, roster and view
// preferences. Each store guards its value with a mutex, mutates only
// through its operations and notifies subscribers after the lock is
// released, so a subscriber may safely read back from the store.
package state
