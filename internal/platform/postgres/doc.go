// Package postgres provides the PostgreSQL durable tier of the answer cache, its goose
// migrations, and the mapping of PostgreSQL errors onto store errors.
package postgres
