package util

import "errors"

// Sentinel errors for the import pipeline's failure modes.
// Wrap them with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrFileFormat indicates an input file extension is not a supported spreadsheet format
	ErrFileFormat = errors.New("unsupported file format")

	// ErrParse indicates a spreadsheet container is corrupt or missing its expected structure
	ErrParse = errors.New("failed to parse file")

	// ErrRemoteTransient indicates a catalog kept rate-limiting after all retries
	ErrRemoteTransient = errors.New("catalog rate limit exceeded")

	// ErrRemote indicates any other catalog network or HTTP failure
	ErrRemote = errors.New("catalog request failed")

	// ErrEntry indicates a single import entry could not be processed
	ErrEntry = errors.New("entry processing failed")

	// ErrPersistence indicates a write to the media store failed
	ErrPersistence = errors.New("persistence failed")

	// ErrRunInProgress indicates an importer was started while a run was already in flight
	ErrRunInProgress = errors.New("import run already in progress")

	// ErrCancelled indicates an import run was cancelled before all entries were processed
	ErrCancelled = errors.New("import cancelled")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
