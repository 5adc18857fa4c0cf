// Package sanitizer provides input normalization functions for portal data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Working days: Title-case weekday names, drop duplicates and unknowns
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
