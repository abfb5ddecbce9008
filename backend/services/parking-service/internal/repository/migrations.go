package repository

import "embed"

// Migrations holds the goose SQL migrations for the parking schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations goose reads from.
const MigrationsDir = "migrations"
