package dispatch

import (
	"testing"

	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

func newReg(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	PopulateAllowList(reg)
	return reg
}

func cell(t *testing.T, f types.Family, v any) *types.Cell {
	t.Helper()
	c, err := types.NewCell(f, v, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSetSignedIntoWiderSigned(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.DInt, int32(0))
	src := cell(t, types.Int, int16(-7))
	if err := Set(reg, dst, src, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(int32) != -7 {
		t.Fatalf("dst = %v", dst.Get())
	}
}

func TestSetSignedIntoNarrowerOverflows(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.SInt, int8(0))
	src := cell(t, types.Int, int16(200))
	err := Set(reg, dst, src, nil)
	if !perror.Is(err, perror.Overflow) {
		t.Fatalf("expected Overflow, got %v", err)
	}
}

func TestSetSameWidthBinaryReinterprets(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.DWord, uint32(0))
	src := cell(t, types.DInt, int32(-1))
	if err := Set(reg, dst, src, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(uint32) != 0xFFFFFFFF {
		t.Fatalf("dst = %#x", dst.Get())
	}
}

func TestSetIntegerIntoFloatRejected(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.Real, float32(0))
	src := cell(t, types.DInt, int32(4))
	err := Set(reg, dst, src, nil)
	if !perror.Is(err, perror.TypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestCalcAddSignedOverflow(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.SInt, int8(120))
	with := cell(t, types.SInt, int8(10))
	err := Calc(reg, dst, with, Add, nil)
	if !perror.Is(err, perror.Overflow) {
		t.Fatalf("expected Overflow, got %v", err)
	}
}

func TestCalcAddUnsignedWraps(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.Byte, uint8(250))
	with := cell(t, types.Byte, uint8(10))
	if err := Calc(reg, dst, with, Add, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(uint8) != 4 {
		t.Fatalf("dst = %v, want wrap to 4", dst.Get())
	}
}

func TestCalcDivByZero(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.DInt, int32(10))
	with := cell(t, types.DInt, int32(0))
	err := Calc(reg, dst, with, Div, nil)
	if !perror.Is(err, perror.DivByZero) {
		t.Fatalf("expected DivByZero, got %v", err)
	}
}

func TestShiftRotateRight(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.Byte, uint8(0x01))
	amount := cell(t, types.USInt, uint8(1))
	if err := Shift(reg, dst, amount, RotateRight); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(uint8) != 0x80 {
		t.Fatalf("dst = %#x, want 0x80", dst.Get())
	}
}

func TestShiftSwapBytes(t *testing.T) {
	reg := newReg(t)
	dst := cell(t, types.Word, uint16(0x1234))
	if err := Shift(reg, dst, nil, SwapBytes); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(uint16) != 0x3412 {
		t.Fatalf("dst = %#x, want 0x3412", dst.Get())
	}
}

func TestCompareMixedSignedUnsigned(t *testing.T) {
	reg := newReg(t)
	lhs := cell(t, types.DInt, int32(-1))
	rhs := cell(t, types.UDInt, uint32(5))
	lt, err := Compare(reg, lhs, rhs, Lt)
	if err != nil {
		t.Fatal(err)
	}
	if !lt {
		t.Fatal("expected -1 < 5")
	}
}

func TestMathSqrtNegativeDomainError(t *testing.T) {
	dst := cell(t, types.LReal, float64(-4))
	err := Math(dst, Sqrt, nil)
	if !perror.Is(err, perror.DomainError) {
		t.Fatalf("expected DomainError, got %v", err)
	}
}

func TestMathAbs(t *testing.T) {
	dst := cell(t, types.Real, float32(-3.5))
	if err := Math(dst, Abs, nil); err != nil {
		t.Fatal(err)
	}
	if dst.Get().(float32) != 3.5 {
		t.Fatalf("dst = %v", dst.Get())
	}
}
