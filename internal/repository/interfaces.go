package repository

import "context"

// SourceRepository turns an input reference into a readable file inside a workspace
type SourceRepository interface {
	// Resolve validates source and returns a local path to its content. Remote sources are
	// downloaded into workDir; local sources are returned as absolute paths.
	Resolve(ctx context.Context, source, workDir string) (*Input, error)
}

// Input is a resolved source
type Input struct {
	Source string // reference as given by the caller
	Path   string // local file to read
	IsPDF  bool
	Remote bool
}
