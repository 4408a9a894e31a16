package input

import "sync/atomic"

// Controller bits as seen by engines. The low 16 bits are the pad itself,
// the high 16 bits carry turbo variants of the face buttons.
const (
	ButtonA uint32 = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	DPadUp
	DPadDown
	DPadLeft
	DPadRight
)

const (
	TurboShift = 16
	TurboA     = ButtonA << TurboShift
	TurboB     = ButtonB << TurboShift

	PadMask = 0xffff
)

// KeyStates is the controller snapshot shared between the input side and
// the emulation goroutine. Writes and reads never block.
type KeyStates struct {
	bits atomic.Uint32
}

func (k *KeyStates) Load() uint32 {
	return k.bits.Load()
}

func (k *KeyStates) Set(bits uint32) {
	k.bits.Store(bits)
}

// Press sets the bits in mask.
func (k *KeyStates) Press(mask uint32) {
	for {
		old := k.bits.Load()
		if k.bits.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

// Release clears the bits in mask.
func (k *KeyStates) Release(mask uint32) {
	for {
		old := k.bits.Load()
		if k.bits.CompareAndSwap(old, old&^mask) {
			return
		}
	}
}

// ApplyTurbo folds the turbo bits into the pad on frames where phase is
// true and strips them from the result.
func ApplyTurbo(bits uint32, phase bool) uint32 {
	if phase {
		if bits&TurboA != 0 {
			bits |= ButtonA
		}
		if bits&TurboB != 0 {
			bits |= ButtonB
		}
	}
	return bits & PadMask
}
