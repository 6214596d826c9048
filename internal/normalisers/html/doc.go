// Package html provides a Normaliser implementation for HTML documents.
// It keeps readable body text, including table cells, and drops scripts,
// styles and markup.
package html
