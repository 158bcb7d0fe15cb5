package bitfield_test

import (
	"testing"

	"github.com/raklaptudirm/mktorrent/internal/bitfield"
)

func TestSetHasClear(t *testing.T) {
	b := bitfield.NewSize(10)

	if b.Has(0) {
		t.Errorf("Has(0): returned true on a fresh bitfield")
	}

	b.Set(0)
	if !b.Has(0) {
		t.Errorf("Has(0): returned false after Set(0)")
	}

	b.Set(9)
	if !b.Has(9) {
		t.Errorf("Has(9): returned false after Set(9)")
	}

	if b.Count() != 2 {
		t.Errorf("Count(): got %d, want 2", b.Count())
	}

	b.Clear(0)
	if b.Has(0) {
		t.Errorf("Has(0): returned true after Clear(0)")
	}
}

func TestOutOfRangeIsNoop(t *testing.T) {
	b := bitfield.NewSize(4)

	b.Set(100)
	if b.Has(100) {
		t.Errorf("Has(100): returned true for an out of range index")
	}
}
