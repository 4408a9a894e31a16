// Package audio defines the output side of the emulator's sound path.
package audio

import "fmt"

// Format describes the PCM stream a session produces.
type Format struct {
	SampleRate int
	Bits       int
	Channels   int
}

// Validate rejects formats the sinks cannot handle.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Bits != 16 {
		return fmt.Errorf("unsupported sample size %d bits", f.Bits)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	}
	return nil
}

// BytesPerSecond is the stream's data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.Bits / 8
}

// Sink receives samples produced by the engine. Init is called when a
// session is loaded, Start and Pause bracket each run of the frame loop, Stop
// is called when the session is unloaded. Play is called from the emulation
// goroutine; the other methods only while it is parked.
type Sink interface {
	Init(format Format) error
	Start()
	Pause()
	Stop()
	Play(samples []int16)
	Close() error
}

// Int16ToBytes appends samples to dst as little endian bytes.
func Int16ToBytes(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
