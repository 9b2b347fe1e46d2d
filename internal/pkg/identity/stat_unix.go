//go:build unix

package identity

import "golang.org/x/sys/unix"

// statIdentity reads the device and inode of path via a raw unix.Stat
// call, giving IsSameFile a tuple that survives renames within the same
// volume.
func statIdentity(path string) Identity {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Identity{}
	}
	return Identity{
		DeviceID: uint64(st.Dev),
		Inode:    uint64(st.Ino),
	}
}
