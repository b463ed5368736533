package cpu

// FlagIF is the interrupt-enable bit of the EFLAGS/RFLAGS register.
const FlagIF = 1 << 9

// IRQState captures the interrupt-enable state that was active before a call
// to IRQGuard.Disable.
type IRQState uintptr

// Enabled returns true if interrupts were enabled when the state was captured.
func (s IRQState) Enabled() bool {
	return s&FlagIF != 0
}

// IRQGuard masks interrupts around sequences that must not be torn by an
// interrupt handler. Calls nest: each Disable must be paired with a Restore
// that receives the state returned by Disable.
type IRQGuard interface {
	// Disable masks interrupts and returns the previous interrupt state.
	Disable() IRQState

	// Restore re-enables interrupts if they were enabled when the supplied
	// state was captured.
	Restore(IRQState)
}

var (
	saveFlagsAndDisableFn = saveFlagsAndDisable
	enableInterruptsFn    = EnableInterrupts
)

// LocalIRQ implements IRQGuard for the interrupt flag of the running CPU.
type LocalIRQ struct{}

// Disable implements IRQGuard.
func (LocalIRQ) Disable() IRQState {
	return IRQState(saveFlagsAndDisableFn())
}

// Restore implements IRQGuard.
func (LocalIRQ) Restore(state IRQState) {
	if state.Enabled() {
		enableInterruptsFn()
	}
}
