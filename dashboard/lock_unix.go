//go:build unix

package dashboard

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive lock on <dir>/dailyplan.lock so that two servers never
// overwrite each other's images. The returned function releases the lock.
func Lock(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "dailyplan.lock")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%v is in use by another dailyplan server (%v)", dir, err)
	}

	f.Truncate(0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		os.Remove(path)
	}, nil
}
