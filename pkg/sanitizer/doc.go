// Package sanitizer provides input normalization functions for rental data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings rather than errors.
//
// Normalization includes:
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Serial codes: Trimmed, inner whitespace removed
//   - Tax ids: Trimmed; TaxIDDigits strips the punctuation for checksum validation
//   - Emails: Trimmed and lowercased
//   - Search terms: Escaped for MongoDB $regex and SQL LIKE patterns
package sanitizer
