package scheduler

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// ErrLocked is returned when another engine holds the lock file.
var ErrLocked = eris.New("scheduler: another instance is already running")

// Lock takes an exclusive, non-blocking lock on path so only one poller
// works a mailbox at a time. Call the returned func to release it.
func Lock(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "scheduler: create lock dir")
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "scheduler: lock")
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}
