package service

import "os"

// removeFile is swappable in tests that exercise ingest rejection without a
// real filesystem.
var removeFile = func(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
