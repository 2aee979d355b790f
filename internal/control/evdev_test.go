package control

import (
	"encoding/binary"
	"testing"
)

func TestDecodeEvdev(t *testing.T) {
	record := func(typ, code uint16, value int32) []byte {
		b := make([]byte, evdevRecordSize)
		binary.NativeEndian.PutUint16(b[16:], typ)
		binary.NativeEndian.PutUint16(b[18:], code)
		binary.NativeEndian.PutUint32(b[20:], uint32(value))
		return b
	}

	var data []byte
	data = append(data, record(evAbs, 0x00, -1200)...)
	data = append(data, record(evKey, 0x13b, 1)...)
	data = append(data, record(0x00, 0x00, 0)...) // SYN_REPORT
	data = append(data, record(evKey, 0x999, 1)...)
	data = append(data, 0x01, 0x02) // truncated trailer

	got := decodeEvdev(data)
	want := []GamepadEvent{{Code: PadLeftX, Value: -1200}, {Code: PadStart, Value: 1}}
	if len(got) != len(want) {
		t.Fatalf("decodeEvdev() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("decodeEvdev()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
