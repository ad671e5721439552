package repository

import "errors"

var (
	// ErrFileNotFound indicates a local source does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrRemoteUnavailable indicates no fetcher is configured for a remote source
	ErrRemoteUnavailable = errors.New("no fetcher configured for source")
)
