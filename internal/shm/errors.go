package shm

import "errors"

var (
	errBadMagic   = errors.New("shm: magic mismatch")
	errBadVersion = errors.New("shm: incompatible version")
)
