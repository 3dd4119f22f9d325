// Package database manages the Bun database connection, the error taxonomy
// shared by all layers, the transactional unit of work, base model
// conventions, and startup migrations and seed data.
package database
