package strpool

import (
	"errors"
	"testing"
)

func TestStringAt(t *testing.T) {
	pool := []byte("hello\x00world\x00")

	tests := []struct {
		offset uint32
		want   string
	}{
		{0, "hello"},
		{6, "world"},
	}
	for _, tt := range tests {
		got, err := StringAt(pool, tt.offset)
		if err != nil {
			t.Fatalf("StringAt(%d) failed: %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("StringAt(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestStringAtNoTerminator(t *testing.T) {
	pool := []byte("hello")
	if _, err := StringAt(pool, 0); !errors.Is(err, ErrInvalidString) {
		t.Errorf("StringAt(untermianted) err = %v, want ErrInvalidString", err)
	}
}

func TestStringAtInvalidUTF8(t *testing.T) {
	pool := []byte{0xff, 0xfe, 0x00}
	if _, err := StringAt(pool, 0); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("StringAt(bad utf8) err = %v, want ErrInvalidUTF8", err)
	}
}

func TestStringAtOffsetPastEnd(t *testing.T) {
	pool := []byte("hi\x00")
	if _, err := StringAt(pool, 100); !errors.Is(err, ErrInvalidString) {
		t.Errorf("StringAt(past end) err = %v, want ErrInvalidString", err)
	}
}
