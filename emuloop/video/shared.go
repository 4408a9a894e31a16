package video

import "sync"

// SharedFrame holds the last presented frame. The emulation goroutine writes
// it from Present and a UI goroutine reads it when drawing. Separate write and
// read buffers let the writer continue while the reader uses its copy.
type SharedFrame struct {
	mu    sync.Mutex
	write *FrameBuffer
	read  *FrameBuffer
	seq   uint64
}

func NewSharedFrame(width, height int) *SharedFrame {
	return &SharedFrame{
		write: NewFrameBuffer(width, height),
		read:  NewFrameBuffer(width, height),
	}
}

// Update copies fb into the shared buffer.
func (sf *SharedFrame) Update(fb *FrameBuffer) {
	sf.mu.Lock()
	sf.write.CopyFrom(fb)
	sf.seq++
	sf.mu.Unlock()
}

// Read returns a snapshot of the latest frame and its sequence number. The
// returned buffer is only valid until the next call to Read.
func (sf *SharedFrame) Read() (*FrameBuffer, uint64) {
	sf.mu.Lock()
	sf.read.CopyFrom(sf.write)
	seq := sf.seq
	sf.mu.Unlock()
	return sf.read, seq
}

// Seq returns how many frames have been written so far.
func (sf *SharedFrame) Seq() uint64 {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.seq
}

// Snapshot returns an independent copy of the latest frame, or nil if
// nothing was presented yet.
func (sf *SharedFrame) Snapshot() *FrameBuffer {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.seq == 0 {
		return nil
	}
	return sf.write.Clone()
}
