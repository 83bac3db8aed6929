package model

import "hash/fnv"

// UID16 hashes a stable parameter identifier down to a 16-bit uid, the way
// original_source/apps/uid_hash.h collapses string param ids to a compact
// wire-friendly value.
func UID16(stableID string) uint16 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(stableID))
	sum := h.Sum32()
	return uint16(sum ^ (sum >> 16))
}

// ChordJitter deterministically derives a per-voice timing or velocity
// jitter amount in [0, rangeN) from a chord id and voice index. Two
// renders of the same chord therefore produce bitwise identical MIDI.
func ChordJitter(chordID uint32, voiceIndex int, rangeN int) int {
	if rangeN <= 0 {
		return 0
	}
	h := fnv.New32a()
	var buf [8]byte
	buf[0] = byte(chordID)
	buf[1] = byte(chordID >> 8)
	buf[2] = byte(chordID >> 16)
	buf[3] = byte(chordID >> 24)
	buf[4] = byte(voiceIndex)
	buf[5] = byte(voiceIndex >> 8)
	_, _ = h.Write(buf[:6])
	return int(h.Sum32() % uint32(rangeN))
}
