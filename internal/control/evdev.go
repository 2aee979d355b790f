package control

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"
)

const (
	evKey = 0x01
	evAbs = 0x03

	// struct input_event on 64-bit Linux: timeval(16) type(2) code(2) value(4)
	evdevRecordSize = 24
	evdevBatch      = 64
)

var evdevCodes = map[uint16]map[uint16]GamepadCode{
	evAbs: {
		0x00: PadLeftX,
		0x01: PadLeftY,
		0x02: PadLeftTrigger,
		0x03: PadRightX,
		0x04: PadRightY,
		0x05: PadRightTrigger,
	},
	evKey: {
		0x130: PadA,
		0x131: PadB,
		0x133: PadY,
		0x134: PadX,
		0x136: PadLeftBumper,
		0x137: PadRightBumper,
		0x13a: PadBack,
		0x13b: PadStart,
		0x13d: PadLeftThumb,
		0x13e: PadRightThumb,
		0x2c0: PadDPadLeft,
		0x2c1: PadDPadRight,
		0x2c2: PadDPadUp,
		0x2c3: PadDPadDown,
	},
}

// EvdevDevice reads a Linux /dev/input/eventN gamepad.
type EvdevDevice struct {
	file         *os.File
	pollInterval time.Duration
	buf          []byte
}

func OpenEvdev(path string, pollInterval time.Duration) (*EvdevDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gamepad %s: %w", path, err)
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &EvdevDevice{
		file:         f,
		pollInterval: pollInterval,
		buf:          make([]byte, evdevRecordSize*evdevBatch),
	}, nil
}

// ReadEvents waits up to one poll interval for input. A timeout yields no
// events and no error so the caller can observe cancellation.
func (d *EvdevDevice) ReadEvents(ctx context.Context) ([]GamepadEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = d.file.SetReadDeadline(time.Now().Add(d.pollInterval))
	n, err := d.file.Read(d.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.ENODEV) {
			return nil, fmt.Errorf("%w: %v", ErrDeviceGone, err)
		}
		return nil, err
	}
	return decodeEvdev(d.buf[:n]), nil
}

func (d *EvdevDevice) Close() error {
	return d.file.Close()
}

func decodeEvdev(data []byte) []GamepadEvent {
	events := make([]GamepadEvent, 0, len(data)/evdevRecordSize)
	for off := 0; off+evdevRecordSize <= len(data); off += evdevRecordSize {
		rec := data[off : off+evdevRecordSize]
		typ := binary.NativeEndian.Uint16(rec[16:18])
		code := binary.NativeEndian.Uint16(rec[18:20])
		value := int32(binary.NativeEndian.Uint32(rec[20:24]))
		mapped, ok := evdevCodes[typ][code]
		if !ok {
			continue
		}
		events = append(events, GamepadEvent{Code: mapped, Value: value})
	}
	return events
}
