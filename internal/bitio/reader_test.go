package bitio

import "testing"

func TestReadBitsAcrossBytes(t *testing.T) {
	// 0xB5 0x3A = 1011 0101  0011 1010
	r := New([]byte{0xB5, 0x3A})
	if got := r.ReadBits(4); got != 0xB {
		t.Errorf("ReadBits(4) = %x, want 0xb", got)
	}
	if got := r.ReadBits(8); got != 0x53 {
		t.Errorf("ReadBits(8) = %x, want 0x53", got)
	}
	if got := r.ReadBits(4); got != 0xA {
		t.Errorf("ReadBits(4) = %x, want 0xa", got)
	}
}

func TestReadSignedBits(t *testing.T) {
	cases := []struct {
		bits int
		n    int
		want int32
	}{
		{0b0001, 4, 1},
		{0b1111, 4, -1},
		{0b1000, 4, -8},
		{0b0111, 4, 7},
	}
	for _, c := range cases {
		r := New([]byte{byte(c.bits) << 4})
		if got := r.ReadSignedBits(c.n); got != c.want {
			t.Errorf("ReadSignedBits(%b, %d) = %d, want %d", c.bits, c.n, got, c.want)
		}
	}
}

func TestAlignToByte(t *testing.T) {
	r := New([]byte{0xFF, 0x42})
	r.ReadBits(3)
	r.AlignToByte()
	if got := r.BytePosition(); got != 1 {
		t.Errorf("BytePosition after align = %d, want 1", got)
	}
	if got := r.ReadByte(); got != 0x42 {
		t.Errorf("ReadByte after align = %x, want 0x42", got)
	}
}

func TestReadPastEndReturnsZero(t *testing.T) {
	r := New([]byte{0x01})
	r.ReadByte()
	if got := r.ReadBits(8); got != 0 {
		t.Errorf("ReadBits past end = %d, want 0", got)
	}
	if got := r.ReadByte(); got != 0 {
		t.Errorf("ReadByte past end = %d, want 0", got)
	}
	if !r.AtEnd() {
		t.Error("AtEnd() = false, want true")
	}
}

func TestSeekBytesResetsBitCursor(t *testing.T) {
	r := New([]byte{0xFF, 0xFF, 0x00})
	r.ReadBits(5)
	r.SeekBytes(2)
	if got := r.ReadByte(); got != 0x00 {
		t.Errorf("ReadByte after seek = %x, want 0", got)
	}
}

func TestReadCString(t *testing.T) {
	r := New([]byte{'h', 'i', 0, 'x'})
	if got := r.ReadCString(); got != "hi" {
		t.Errorf("ReadCString = %q, want %q", got, "hi")
	}
	if got := r.ReadByte(); got != 'x' {
		t.Errorf("byte after cstring = %q, want 'x'", got)
	}
}

func TestReadU16LEU32LE(t *testing.T) {
	r := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	if got := r.ReadU16LE(); got != 0x0201 {
		t.Errorf("ReadU16LE = %x, want 0x0201", got)
	}
	if got := r.ReadU32LE(); got != 0x06050403 {
		t.Errorf("ReadU32LE = %x, want 0x06050403", got)
	}
}
