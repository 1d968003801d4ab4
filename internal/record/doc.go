// Package record defines the values held by the record store.
//
// A Record is an object with an "id" field; every other field is payload.
// Values are restricted to a sealed set (null, string, int, bool, array,
// object) so that every record has exactly one canonical JSON form.
//
// Key constraints:
//   - NO float values - YAML/JSON numbers must be integral
//   - Identifiers are string, int or bool; equality is kind-strict
//   - Records are plain maps; callers that need isolation use Clone
//
// This package imports nothing internal.
package record
