package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseBuild,
				Kind:   KindIllFormed,
				Path:   []string{"pair", "fields", "1"},
				Type:   "(i32, bool)",
				Detail: "field overlaps field 0",
			},
			contains: []string{"[build]", "ill_formed", "pair.fields.1", "(i32, bool)", "overlaps"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "read target",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "read target", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindUndefinedBehavior,
		Path:  []string{"opt"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindUndefinedBehavior}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindUndefinedBehavior}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindUndefinedBehavior}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseBuild, KindIllFormed).
		Path("enum", "variants", "0").
		Type("u8").
		Value(300).
		Cause(cause).
		Detail("value %d does not fit %s", 300, "u8").
		Build()

	if err.Phase != PhaseBuild {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseBuild)
	}
	if err.Kind != KindIllFormed {
		t.Errorf("Kind = %v, want %v", err.Kind, KindIllFormed)
	}
	if len(err.Path) != 3 || err.Path[0] != "enum" {
		t.Errorf("Path = %v, want [enum variants 0]", err.Path)
	}
	if err.Type != "u8" {
		t.Errorf("Type = %v, want 'u8'", err.Type)
	}
	if err.Value != 300 {
		t.Errorf("Value = %v, want 300", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "value 300 does not fit u8" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestIsUB(t *testing.T) {
	ub := UndefinedBehavior(PhaseResolve, "vtable %q is not live", "dyn_fmt")

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "direct", err: ub, want: true},
		{name: "wrapped by fmt", err: fmt.Errorf("size_of_val: %w", ub), want: true},
		{name: "wrapped by Error", err: Wrap(PhaseValidate, KindInvalidData, ub, "deref"), want: true},
		{name: "ordinary", err: Overflow(PhaseLayout, nil, 1, "size"), want: false},
		{name: "foreign", err: errors.New("plain"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUB(tt.err); got != tt.want {
				t.Errorf("IsUB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseLayout, []string{"arr"}, uint64(1<<63), "size")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseDecode, []string{"tag"}, 6, 4, 8)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !strings.Contains(err.Detail, "[6, 10)") {
			t.Errorf("Detail = %q, should contain range", err.Detail)
		}
	})

	t.Run("IllFormed", func(t *testing.T) {
		err := IllFormed([]string{"u"}, "union", "chunk %d overlaps", 1)
		if err.Phase != PhaseBuild || err.Kind != KindIllFormed {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseParse, "type", "pair")
		if err.Kind != KindNotFound || err.Value != "pair" {
			t.Errorf("got %v value %v", err.Kind, err.Value)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseBuild, "resource types")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})
}

func TestViolation(t *testing.T) {
	defer func() {
		cv, ok := AsViolation(recover())
		if !ok {
			t.Fatal("expected a contract violation panic")
		}
		if !strings.Contains(cv.Error(), "expect_sized") {
			t.Errorf("message = %q", cv.Error())
		}
	}()
	Violation("expect_sized called on %s", "slice")
}
