package gifenc

import (
	"bytes"
	"testing"
)

func TestStreamWriteByteAndBytes(t *testing.T) {
	s := NewStream()
	s.WriteByte(0x01)
	s.WriteBytes([]byte{0x02, 0x03})
	s.WriteUTFBytes("ab")

	want := []byte{0x01, 0x02, 0x03, 'a', 'b'}
	if got := s.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("Bytes() = %v, want %v", got, want)
	}
	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(want))
	}
}

func TestStreamWriteUint16LittleEndian(t *testing.T) {
	s := NewStream()
	s.WriteUint16(0x1234)
	want := []byte{0x34, 0x12}
	if got := s.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("WriteUint16(0x1234) = %v, want %v", got, want)
	}
}

func TestStreamReserveAndPatch(t *testing.T) {
	s := NewStream()
	s.WriteByte(0xAA)
	off := s.Reserve()
	s.WriteByte(0xBB)
	s.Patch(off, 0x42)

	want := []byte{0xAA, 0x42, 0xBB}
	if got := s.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("after patch = %v, want %v", got, want)
	}
}

func TestStreamGrowsPastInitialCapacity(t *testing.T) {
	s := NewStream()
	data := make([]byte, DefaultStreamCapacity*3)
	for i := range data {
		data[i] = byte(i)
	}
	s.WriteBytes(data)
	if s.Len() != len(data) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(data))
	}
	if !bytes.Equal(s.Bytes(), data) {
		t.Fatalf("grown stream content mismatch")
	}
}

func TestStreamReset(t *testing.T) {
	s := NewStream()
	s.WriteBytes([]byte{1, 2, 3})
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len() after Reset() = %d, want 0", s.Len())
	}
	s.WriteByte(9)
	if got := s.Bytes(); !bytes.Equal(got, []byte{9}) {
		t.Fatalf("Bytes() after reuse = %v, want [9]", got)
	}
}

func TestStreamBytesViewSharesBackingArrayUntilNextWrite(t *testing.T) {
	s := NewStream()
	s.WriteBytes([]byte{1, 2, 3})
	view := s.BytesView()
	if !bytes.Equal(view, []byte{1, 2, 3}) {
		t.Fatalf("BytesView() = %v, want [1 2 3]", view)
	}
}
