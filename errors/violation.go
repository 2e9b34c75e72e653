package errors

import "fmt"

// ContractViolation is the panic value raised when a caller breaks an
// internal precondition of the model (for example asking a dynamically
// sized strategy for a static size). A correct caller never triggers one.
type ContractViolation struct {
	Detail string
}

func (c *ContractViolation) Error() string {
	return "contract violation: " + c.Detail
}

// Violation aborts with a *ContractViolation.
func Violation(format string, args ...any) {
	panic(&ContractViolation{Detail: fmt.Sprintf(format, args...)})
}

// AsViolation classifies a value obtained from recover().
func AsViolation(recovered any) (*ContractViolation, bool) {
	cv, ok := recovered.(*ContractViolation)
	return cv, ok
}
