// Package shm implements the engine's shared-memory regions: a per-track
// host region (header, audio in/out slots, std/ctrl/ui event rings,
// mailbox) and a UI region (command/diff rings plus snapshot windows).
//
// Regions are backed by POSIX shared-memory-style files under /dev/shm,
// created and mmap'd the way glibc's shm_open + mmap pair behaves, using
// golang.org/x/sys/unix for the mmap syscall.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Align is the required alignment, in bytes, for every offset and header
// field in a region.
const Align = 64

// shmDir is where POSIX-style shared-memory objects live on Linux.
var shmDir = "/dev/shm"

// Region is a named, mmap'd block of shared memory.
type Region struct {
	Name string
	Data []byte
	file *os.File
}

// Create allocates (or truncates and reopens) a named region of the given
// size and maps it read-write.
func Create(name string, size int) (*Region, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: truncate %s: %w", name, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", name, err)
	}
	return &Region{Name: name, Data: data, file: f}, nil
}

// Open maps an existing named region read-write, sized to size bytes.
func Open(name string, size int) (*Region, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", name, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", name, err)
	}
	return &Region{Name: name, Data: data, file: f}, nil
}

// Close unmaps and closes the underlying file, but leaves the backing
// object on disk for a subsequent Open (callers call Unlink explicitly).
func (r *Region) Close() error {
	if r == nil || r.Data == nil {
		return nil
	}
	err := unix.Munmap(r.Data)
	r.Data = nil
	if r.file != nil {
		r.file.Close()
	}
	return err
}

// Unlink removes the backing object entirely.
func Unlink(name string) error {
	path, err := shmPath(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func shmPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("shm: empty region name")
	}
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return "", fmt.Errorf("shm: invalid region name %q", name)
	}
	return filepath.Join(shmDir, base), nil
}

// ptrAt returns a pointer to byte offset off within buf, the shared idiom
// every fixed-layout view in this package uses to address a field without
// copying.
func ptrAt(buf []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&buf[off])
}

// alignUp rounds n up to the next multiple of Align.
func alignUp(n int) int {
	if n%Align == 0 {
		return n
	}
	return n + (Align - n%Align)
}
