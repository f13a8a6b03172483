// Package config loads environment variables into typed configuration
// structs using `env` field tags, with optional .env file support for
// local development. Parsed configurations are cached per type.
package config
