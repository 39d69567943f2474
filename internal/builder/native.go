package builder

import (
	"encoding/json"

	"plcsim/internal/perror"
	"plcsim/internal/types"
)

// defaultNative returns the zero value for family, used when a member
// declaration carries no explicit "value" (spec §4.2 "every cell has a
// default, which without an explicit initializer is the family's
// natural zero").
func defaultNative(family types.Family) any {
	switch family {
	case types.Bool:
		return false
	case types.SInt:
		return int8(0)
	case types.Int:
		return int16(0)
	case types.DInt:
		return int32(0)
	case types.LInt:
		return int64(0)
	case types.USInt, types.Byte:
		return uint8(0)
	case types.UInt, types.Word:
		return uint16(0)
	case types.UDInt, types.DWord:
		return uint32(0)
	case types.ULInt, types.LWord:
		return uint64(0)
	case types.Real:
		return float32(0)
	case types.LReal:
		return float64(0)
	case types.Char:
		return byte(0)
	case types.WChar:
		return rune(0)
	case types.String, types.WString:
		return ""
	case types.Time:
		return types.Duration(0)
	case types.LTime:
		return types.LDuration(0)
	case types.Tod:
		return types.TimeOfDay(0)
	case types.LTod:
		return types.LTimeOfDay(0)
	}
	return nil
}

// unmarshalNative decodes an explicit "value" field into family's native
// Go representation (spec §6 "src carries value?"). Integer families
// decode through int64/uint64 and Real/LReal through float64, each then
// narrowed to the family's width; time families accept a
// plain millisecond/nanosecond integer count rather than a literal
// string, since the provider/program JSON carries pre-resolved values.
func unmarshalNative(family types.Family, raw json.RawMessage) (any, error) {
	switch family {
	case types.Bool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding Bool value")
		}
		return v, nil
	case types.SInt, types.Int, types.DInt, types.LInt:
		v, err := unmarshalInt(raw)
		if err != nil {
			return nil, err
		}
		return types.MakeSigned(family, v), nil
	case types.USInt, types.UInt, types.UDInt, types.ULInt, types.Byte, types.Word, types.DWord, types.LWord:
		v, err := unmarshalUint(raw)
		if err != nil {
			return nil, err
		}
		return types.MakeUnsigned(family, v), nil
	case types.Real, types.LReal:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding float value")
		}
		return types.MakeFloat(family, v), nil
	case types.Char:
		s, err := unmarshalString(raw)
		if err != nil {
			return nil, err
		}
		if len(s) == 0 {
			return byte(0), nil
		}
		return s[0], nil
	case types.WChar:
		s, err := unmarshalString(raw)
		if err != nil {
			return nil, err
		}
		for _, r := range s {
			return r, nil
		}
		return rune(0), nil
	case types.String, types.WString:
		return unmarshalString(raw)
	case types.Time:
		v, err := unmarshalInt(raw)
		if err != nil {
			return nil, err
		}
		return types.Duration(v), nil
	case types.LTime:
		v, err := unmarshalInt(raw)
		if err != nil {
			return nil, err
		}
		return types.LDuration(v), nil
	case types.Tod:
		v, err := unmarshalUint(raw)
		if err != nil {
			return nil, err
		}
		return types.TimeOfDay(v), nil
	case types.LTod:
		v, err := unmarshalUint(raw)
		if err != nil {
			return nil, err
		}
		return types.LTimeOfDay(v), nil
	}
	return nil, perror.Newf(perror.ParseError, "no value decoder for family %s", family)
}

func unmarshalInt(raw json.RawMessage) (int64, error) {
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, perror.Wrap(perror.ParseError, err, "decoding integer value")
	}
	return v, nil
}

func unmarshalUint(raw json.RawMessage) (uint64, error) {
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, perror.Wrap(perror.ParseError, err, "decoding unsigned integer value")
	}
	return v, nil
}

func unmarshalString(raw json.RawMessage) (string, error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", perror.Wrap(perror.ParseError, err, "decoding string value")
	}
	return v, nil
}
