package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 8
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandHexString_Differs(t *testing.T) {
	a, _ := MakeRandHexString(16)
	b, _ := MakeRandHexString(16)
	if a == b {
		t.Logf("warning: two MakeRandHexString(16) results are identical; extremely unlikely")
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- ConflictError ----------

func TestConflictError_IsErrConflict(t *testing.T) {
	err := fmt.Errorf("register: %w", NewConflictError(ConflictFieldEmail))

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected errors.Is(err, ErrConflict)")
	}

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected errors.As to find ConflictError")
	}
	if ce.Field != ConflictFieldEmail {
		t.Fatalf("field mismatch: got %q", ce.Field)
	}
	if ce.Error() != "email already registered" {
		t.Fatalf("unexpected message %q", ce.Error())
	}
}

func TestValidationError_WrapsSentinel(t *testing.T) {
	err := ValidationError("ip", "not an IP address")
	if !errors.Is(err, ErrorValidation) {
		t.Fatalf("expected ErrorValidation, got %v", err)
	}
}
