package dispatch

import (
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// allFamilies enumerates every scalar family, used to build the cross-
// product allow-list at setup (spec §9 "table-driven to keep the
// runtime path branch-free").
var allFamilies = []types.Family{
	types.Bool,
	types.SInt, types.Int, types.DInt, types.LInt,
	types.USInt, types.UInt, types.UDInt, types.ULInt,
	types.Byte, types.Word, types.DWord, types.LWord,
	types.Real, types.LReal,
	types.Char, types.WChar, types.String, types.WString,
	types.Time, types.LTime, types.Tod, types.LTod,
}

var integerFamilies = []types.Family{
	types.SInt, types.Int, types.DInt, types.LInt,
	types.USInt, types.UInt, types.UDInt, types.ULInt,
	types.Byte, types.Word, types.DWord, types.LWord,
}

var binaryFamilies = []types.Family{types.Byte, types.Word, types.DWord, types.LWord}
var floatFamilies = []types.Family{types.Real, types.LReal}
var timeFamilies = []types.Family{types.Time, types.LTime, types.Tod, types.LTod}

// PopulateAllowList fills reg's (op, lhs, rhs) table for every kernel
// this package implements. Called once at process setup, before the
// builder resolves any operation (spec §4.1's registry owns the table;
// this package is its sole populator).
func PopulateAllowList(reg *registry.Registry) {
	populateSet(reg)
	populateArith(reg)
	populateShift(reg)
	populateCmp(reg)
}

func populateSet(reg *registry.Registry) {
	reg.AllowOperation(string(OpSet), types.Bool, types.Bool)
	for _, df := range integerFamilies {
		for _, sf := range integerFamilies {
			if types.IsBinary(df) && types.BitWidth(df) == types.BitWidth(sf) {
				reg.AllowOperation(string(OpSet), df, sf)
				continue
			}
			if types.IsSigned(df) || types.IsUnsigned(df) {
				reg.AllowOperation(string(OpSet), df, sf)
			}
		}
	}
	reg.AllowOperation(string(OpSet), types.Real, types.Real)
	reg.AllowOperation(string(OpSet), types.LReal, types.Real)
	reg.AllowOperation(string(OpSet), types.LReal, types.LReal)
	reg.AllowOperation(string(OpSet), types.Char, types.Char)
	reg.AllowOperation(string(OpSet), types.WChar, types.WChar)
	reg.AllowOperation(string(OpSet), types.String, types.String)
	reg.AllowOperation(string(OpSet), types.WString, types.WString)
	for _, tf := range timeFamilies {
		reg.AllowOperation(string(OpSet), tf, tf)
	}
}

func populateArith(reg *registry.Registry) {
	ops := []ArithOp{Add, Sub, Mul, Div, Mod}
	for _, op := range ops {
		for _, f := range integerFamilies {
			reg.AllowOperation(string(op), f, f)
		}
		for _, f := range floatFamilies {
			reg.AllowOperation(string(op), f, f)
		}
	}
}

func populateShift(reg *registry.Registry) {
	ops := []ShiftOp{Shl, Shr, RotateLeft, RotateRight}
	for _, op := range ops {
		for _, df := range binaryFamilies {
			for _, sf := range integerFamilies {
				reg.AllowOperation(string(op), df, sf)
			}
		}
	}
	for _, df := range binaryFamilies {
		reg.AllowOperation(string(SwapBytes), df, df)
	}
}

func populateCmp(reg *registry.Registry) {
	reg.AllowOperation(string(OpCmp), types.Bool, types.Bool)
	for _, df := range integerFamilies {
		for _, sf := range integerFamilies {
			reg.AllowOperation(string(OpCmp), df, sf)
		}
	}
	for _, df := range floatFamilies {
		for _, sf := range floatFamilies {
			reg.AllowOperation(string(OpCmp), df, sf)
		}
	}
	for _, f := range []types.Family{types.Char, types.WChar, types.String, types.WString} {
		reg.AllowOperation(string(OpCmp), f, f)
	}
	for _, tf := range timeFamilies {
		reg.AllowOperation(string(OpCmp), tf, tf)
	}
}
