// Package repository provides a generic data-access layer built on Bun:
// create, read, update, delete, search, count, existence, and bulk operations
// for any entity type, executed against a caller-supplied unit of work.
package repository
