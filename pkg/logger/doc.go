// Package logger builds configured slog.Logger instances with sensible
// production defaults (JSON output, INFO level) and typed attribute helpers
// so log keys stay consistent across services.
package logger
