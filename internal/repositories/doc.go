// Package repositories implements SQLite persistence for host-side records.
//
// Key Implementations:
//   - [SettingsRepository] : key/value settings written by the frontend, stored as JSON text
//
// Repositories take a *sql.DB that already has migrations applied (see shared.OpenDatabase).
package repositories
