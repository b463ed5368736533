package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values. The Go allocator is not available to the kernel
// so errors cannot be constructed at runtime with errors.New or fmt.Errorf.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
