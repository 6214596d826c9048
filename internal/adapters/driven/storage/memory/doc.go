// Package memory provides in-process implementations of the storage ports.
//
// Nothing here survives a restart. The stores back tests and the
// "memory" backends selected in configuration.
package memory
