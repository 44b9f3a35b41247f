//go:build windows

package dashboard

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

func Lock(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "dailyplan.lock")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, err
	}

	ol := new(windows.Overlapped)
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol); err != nil {
		f.Close()
		return nil, fmt.Errorf("%v is in use by another dailyplan server (%v)", dir, err)
	}

	return func() {
		windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
		f.Close()
		os.Remove(path)
	}, nil
}
