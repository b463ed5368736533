package cpu

// PortIO is implemented by objects that can read and write bytes from/to
// hardware I/O ports. Drivers receive a PortIO instead of calling the port
// intrinsics directly so that they can be exercised against a fake or an
// emulated bus.
type PortIO interface {
	// Read8 reads a byte from the specified port.
	Read8(port uint16) uint8

	// Write8 writes a byte to the specified port.
	Write8(port uint16, val uint8)
}

var (
	portReadByteFn  = PortReadByte
	portWriteByteFn = PortWriteByte
)

// Ports implements PortIO using the IN/OUT instructions of the running CPU.
type Ports struct{}

// Read8 implements PortIO.
func (Ports) Read8(port uint16) uint8 {
	return portReadByteFn(port)
}

// Write8 implements PortIO.
func (Ports) Write8(port uint16, val uint8) {
	portWriteByteFn(port, val)
}
