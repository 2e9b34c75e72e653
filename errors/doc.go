// Package errors provides structured error types for layout and validity checks.
//
// Errors carry the phase where they arose and a kind describing the failure,
// so callers can match on either with errors.Is.
//
// Two failure classes are kept apart:
//
//   - Modeled undefined behavior (KindUndefinedBehavior) is a property of the
//     program being modeled, e.g. a trait-object pointer whose vtable is not
//     live. It is returned as an ordinary error value; test it with IsUB.
//   - Contract violations are misuse of this module by its caller. They panic
//     with *ContractViolation via Violation.
package errors
