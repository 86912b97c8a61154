package config

import "os"

func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

func ProcessedDir() string {
	if dir := os.Getenv("PROCESSED_DIR"); dir != "" {
		return dir
	}
	return "processed"
}

// EnsureDataDirs creates the upload and artifact directories.
func EnsureDataDirs() error {
	for _, dir := range []string{UploadDir(), ProcessedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
