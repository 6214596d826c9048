// Package normalisers selects the Normaliser for an uploaded file and
// extracts its text. Format implementations live in subpackages
// (plaintext, markdown, html, docx) and are registered at startup with
// RegisterDefaults.
package normalisers
