package pkg

import "sync"

type HasLocker interface{ GetLocker() *sync.Mutex }

func LockWrap(i HasLocker, f func()) {
	i.GetLocker().Lock()
	defer i.GetLocker().Unlock()
	f()
}

// LockWrapResult is LockWrap for callbacks that produce a value.
func LockWrapResult[T any](i HasLocker, f func() T) T {
	i.GetLocker().Lock()
	defer i.GetLocker().Unlock()
	return f()
}
