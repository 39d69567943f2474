package dispatch

import "golang.org/x/exp/constraints"

// addOverflows, subOverflows, and mulOverflows detect signed-arithmetic
// overflow by sign inspection, generic over bit width so the same test
// serves every signed family's kernel rather than one copy per width.
func addOverflows[T constraints.Signed](a, b, r T) bool {
	return (b > 0 && r < a) || (b < 0 && r > a)
}

func subOverflows[T constraints.Signed](a, b, r T) bool {
	return (b < 0 && r < a) || (b > 0 && r > a)
}

func mulOverflows[T constraints.Signed](a, b, r T) bool {
	return a != 0 && r/a != b
}
