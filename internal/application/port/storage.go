package port

import "context"

// FileStorage writes output files below a base directory
type FileStorage interface {
	// Save replaces the file at path atomically, creating parent directories.
	Save(ctx context.Context, path string, content []byte) error
	GetFullPath(relativePath string) string
}

// TempStager stages raw document bytes in a uniquely named temporary file.
// The returned cleanup removes the file and must be called on every path.
type TempStager interface {
	Stage(ctx context.Context, key string, content []byte) (path string, cleanup func(), err error)
}
