// Package domain holds the types shared by every layer of docrag: chunks
// and documents, query input and results, conversation turns, generated
// attachments, application settings and the sentinel errors callers test
// with errors.Is.
//
// domain imports nothing outside the standard library. Ports, services and
// adapters depend on it; it depends on none of them.
package domain
