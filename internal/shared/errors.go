package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Auth server errors. The messages of the last two are part of the frontend contract.
	ErrNoMainWindow    = errors.New("failed to get main webview window")
	ErrPortAllocation  = errors.New("failed to find available port")
	ErrNoServerRunning = errors.New("No auth server is currently running")
	ErrSignalFailed    = errors.New("Failed to send shutdown signal")

	// Host errors
	ErrUnknownCommand     = errors.New("command not found")
	ErrDuplicateCommand   = errors.New("command already registered")
	ErrUnknownWindow      = errors.New("window not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timed out")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")

	// HTTP proxy errors. Messages match what the frontend already displays.
	ErrUnsupportedMethod = errors.New("Unsupported HTTP method")
	ErrRequestFailed     = errors.New("Request failed")
	ErrReadBody          = errors.New("Failed to read response body")

	// Persistence errors
	ErrSettingNotFound = errors.New("setting not found")
)
