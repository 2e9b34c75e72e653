package ptr

import (
	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

// CheckDeref checks that p may be dereferenced as a value of pointer type t
// and returns the number of bytes the access covers.
//
// Metadata that disagrees with t is a contract violation. Everything else
// that fails is undefined behavior: an address t can never hold, a dangling
// vtable, a size above the target's object limit, or a non-zero-size access
// through a pointer without provenance.
func CheckDeref[P any](t PtrType, p Pointer[P], vtables VTableLookup, target mem.Target) (mem.Size, error) {
	if !t.MetaKind().Matches(p.Meta) {
		errors.Violation("pointer %s carries metadata that does not match %s", p, t)
	}

	pointee, safe := Pointee(t)
	if !safe {
		return mem.ZeroSize, nil
	}

	if !t.AddrValid(p.Thin.Addr) {
		if !pointee.Inhabited {
			return mem.Size{}, errors.UndefinedBehavior(errors.PhaseValidate, "reference to uninhabited type at %s", p.Thin)
		}
		return mem.Size{}, errors.UndefinedBehavior(errors.PhaseValidate,
			"address %s is null or not aligned to %s", p.Thin, pointee.Align)
	}

	size, err := Compute(pointee.Size, p.Meta, vtables)
	if err != nil {
		return mem.Size{}, errors.Wrap(errors.PhaseValidate, errors.KindUndefinedBehavior, err, "resolve pointee size")
	}
	if !target.ValidSize(size) {
		return mem.Size{}, errors.UndefinedBehavior(errors.PhaseValidate,
			"pointee size %s exceeds the %s object limit", size, target.Name)
	}
	if !size.IsZero() && !p.Thin.HasProvenance() {
		return mem.Size{}, errors.UndefinedBehavior(errors.PhaseValidate,
			"%s-byte access through %s without provenance", size, p.Thin)
	}
	return size, nil
}
