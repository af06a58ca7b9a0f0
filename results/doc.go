// Package results persists completed analyses and resolves them by id.
package results
