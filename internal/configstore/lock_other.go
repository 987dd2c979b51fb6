//go:build !unix

package configstore

import "os"

// Advisory locking is a no-op on platforms without flock; the atomic-rename
// durability property still holds and in-process writers are serialized by
// the store mutex.

func lockShared(_ *os.File) error { return nil }

func lockExclusive(_ *os.File) error { return nil }

func unlock(_ *os.File) {}
