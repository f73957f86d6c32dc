// Package models defines the core domain models for Cuaderno.
//
// # Models
//
//   - Student: one tracked student with a nominal monthly fee and an
//     attendance mode that scales the fee
//   - Payee: one recipient of a slice of the monthly total
//   - Config: payee list plus how their shares are resolved
//   - Snapshot: the atomic unit exchanged between a device and the
//     sync server (students + config + timestamp)
//   - User: a registered sync-server account
//
// # Design Principles
//
// 1. **Names are keys**: students are identified by their (unique,
// case-sensitive) name, matching how the roster is used in practice.
// There are no surrogate IDs for students.
//
// 2. **Whole-snapshot sync**: devices never exchange deltas. A Snapshot
// is written and read as one document; the newer timestamp wins.
//
// 3. **Backward-compatible config**: older installs persisted a two-payee
// config as a pair of names and a single percentage. DecodeConfig accepts
// both shapes and always yields the payee-list form.
package models
