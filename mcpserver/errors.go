// Package mcpserver exposes compatibility analysis and document search as
// Model Context Protocol tools.
package mcpserver

import "errors"

var (
	// ErrServiceRequired is returned when no service is given to NewServer.
	ErrServiceRequired = errors.New("mcpserver: service is required")

	// ErrDocumentRequired is returned when index_document gets neither a
	// path nor text.
	ErrDocumentRequired = errors.New("mcpserver: path or text is required")

	// ErrUnknownSourceType is returned for an unrecognized source_type.
	ErrUnknownSourceType = errors.New("mcpserver: unknown source type")
)
