// Package midiwire encodes and decodes the MIDI bytes carried inside a
// shm.Entry payload, using gitlab.com/gomidi/midi/v2's channel-message
// constructors so wire bytes are RFC-correct instead of hand-rolled
// status-byte arithmetic.
package midiwire

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// EncodeNoteOn builds the 3-byte MIDI note-on message for channel 0 (the
// engine addresses plugin slots, not MIDI channels, so channel is always 0;
// the host maps it onto the destination plugin instance out of band).
func EncodeNoteOn(pitch, velocity uint8) [3]byte {
	return pack3(midi.NoteOn(0, pitch, velocity))
}

// EncodeNoteOff builds the 3-byte MIDI note-off message.
func EncodeNoteOff(pitch uint8) [3]byte {
	return pack3(midi.NoteOff(0, pitch))
}

func pack3(msg midi.Message) [3]byte {
	b := msg.Bytes()
	var out [3]byte
	copy(out[:], b)
	return out
}

// Note is a decoded note-on/off event.
type Note struct {
	On       bool
	Pitch    uint8
	Velocity uint8
}

// Decode parses a 3-byte wire payload back into a Note.
func Decode(raw [3]byte) (Note, error) {
	msg := midi.Message(raw[:])
	var ch, key, vel uint8
	if msg.GetNoteOn(&ch, &key, &vel) {
		return Note{On: true, Pitch: key, Velocity: vel}, nil
	}
	if msg.GetNoteOff(&ch, &key, &vel) {
		return Note{On: false, Pitch: key, Velocity: vel}, nil
	}
	return Note{}, fmt.Errorf("midiwire: payload is not a note-on/off message")
}
