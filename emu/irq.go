package emu

import "textos/kernel/cpu"

// IRQ emulates the interrupt flag of the CPU. It implements cpu.IRQGuard.
type IRQ struct {
	enabled         bool
	depth, maxDepth int
}

// Disable implements cpu.IRQGuard.
func (f *IRQ) Disable() cpu.IRQState {
	var state cpu.IRQState
	if f.enabled {
		state = cpu.FlagIF
	}

	f.enabled = false
	if f.depth++; f.depth > f.maxDepth {
		f.maxDepth = f.depth
	}
	return state
}

// Restore implements cpu.IRQGuard.
func (f *IRQ) Restore(state cpu.IRQState) {
	f.depth--
	if state.Enabled() {
		f.enabled = true
	}
}

// Enable sets the interrupt flag.
func (f *IRQ) Enable() {
	f.enabled = true
}

// Enabled returns true if the interrupt flag is set.
func (f *IRQ) Enabled() bool {
	return f.enabled
}

// Depth returns the number of Disable calls not yet matched by a Restore.
func (f *IRQ) Depth() int {
	return f.depth
}

// MaxDepth returns the deepest nesting of Disable calls observed so far.
func (f *IRQ) MaxDepth() int {
	return f.maxDepth
}
