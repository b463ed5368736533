package main

import "textos/kernel/kmain"

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code as it is not aware of the presence of the rt0 code.
//
// main is invoked by the rt0 assembly code after entering protected mode and
// is not expected to return.
func main() {
	kmain.Kmain()
}
