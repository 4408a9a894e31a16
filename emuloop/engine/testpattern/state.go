package testpattern

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var stateMagic = [4]byte{'E', 'L', 'T', 'P'}

const stateVersion = 1

var errBadState = errors.New("not a test pattern save state")

type savedState struct {
	Magic     [4]byte
	Version   uint16
	Pattern   uint16
	Frame     int64
	CursorX   int32
	CursorY   int32
	TonePhase int64
	Turbo     bool
}

func (e *Engine) marshalState() ([]byte, error) {
	st := savedState{
		Magic:     stateMagic,
		Version:   stateVersion,
		Pattern:   uint16(e.patternType),
		Frame:     int64(e.frame),
		CursorX:   int32(e.cursorX),
		CursorY:   int32(e.cursorY),
		TonePhase: int64(e.tonePhase),
		Turbo:     e.turbo,
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &st); err != nil {
		return nil, fmt.Errorf("testpattern: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) unmarshalState(data []byte) error {
	var st savedState
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &st); err != nil {
		return fmt.Errorf("testpattern: %w", errBadState)
	}
	if st.Magic != stateMagic {
		return fmt.Errorf("testpattern: %w", errBadState)
	}
	if st.Version != stateVersion {
		return fmt.Errorf("testpattern: unsupported state version %d", st.Version)
	}
	if int(st.Pattern) >= patternCount {
		return fmt.Errorf("testpattern: %w", errBadState)
	}

	e.patternType = int(st.Pattern)
	e.frame = int(st.Frame)
	e.cursorX = int(st.CursorX)
	e.cursorY = int(st.CursorY)
	e.tonePhase = int(st.TonePhase)
	e.turbo = st.Turbo
	return nil
}
