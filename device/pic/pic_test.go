package pic

import (
	"bytes"
	"testing"

	"textos/device"
)

type portWrite struct {
	port uint16
	val  uint8
}

type portRecorder struct {
	writes []portWrite
}

func (r *portRecorder) Read8(uint16) uint8 { return 0 }

func (r *portRecorder) Write8(port uint16, val uint8) {
	r.writes = append(r.writes, portWrite{port, val})
}

func (r *portRecorder) check(t *testing.T, exp []portWrite) {
	t.Helper()

	if len(r.writes) != len(exp) {
		t.Fatalf("expected %d port writes; got %d: %v", len(exp), len(r.writes), r.writes)
	}

	for i, w := range exp {
		if r.writes[i] != w {
			t.Errorf("[write %d] expected 0x%x -> port 0x%x; got 0x%x -> port 0x%x", i, w.val, w.port, r.writes[i].val, r.writes[i].port)
		}
	}
}

func TestRemap(t *testing.T) {
	var (
		ports portRecorder
		ctrl  Controller
	)

	ctrl.Init(&ports, DefaultMasterOffset, DefaultSlaveOffset)
	ctrl.SetMask(0xfd, 0xff)
	ports.writes = nil

	if err := ctrl.Remap(0x30, 0x38); err != nil {
		t.Fatal(err)
	}

	ports.check(t, []portWrite{
		{MasterCommand, 0x11},
		{SlaveCommand, 0x11},
		{MasterData, 0x30},
		{SlaveData, 0x38},
		{MasterData, 0x04},
		{SlaveData, 0x02},
		{MasterData, 0x01},
		{SlaveData, 0x01},
		{MasterData, 0xfd},
		{SlaveData, 0xff},
	})

	if got := ctrl.Vector(1); got != 0x31 {
		t.Errorf("expected IRQ1 to raise vector 0x31; got 0x%x", got)
	}

	if got := ctrl.Vector(12); got != 0x3c {
		t.Errorf("expected IRQ12 to raise vector 0x3c; got 0x%x", got)
	}
}

func TestRemapRejectsUnalignedOffsets(t *testing.T) {
	var (
		ports portRecorder
		ctrl  Controller
	)

	ctrl.Init(&ports, DefaultMasterOffset, DefaultSlaveOffset)
	if err := ctrl.Remap(0x21, 0x28); err != errBadOffset {
		t.Fatalf("expected errBadOffset; got %v", err)
	}

	if len(ports.writes) != 0 {
		t.Fatal("expected no port writes for a rejected remap")
	}
}

func TestUnmask(t *testing.T) {
	specs := []struct {
		irq                 uint8
		expMaster, expSlave uint8
	}{
		{1, 0xfd, 0xff},
		{0, 0xfe, 0xff},
		{7, 0x7f, 0xff},
		{8, 0xfb, 0xfe},
		{14, 0xfb, 0xbf},
	}

	for specIndex, spec := range specs {
		var (
			ports portRecorder
			ctrl  Controller
		)

		ctrl.Init(&ports, DefaultMasterOffset, DefaultSlaveOffset)
		ctrl.Unmask(spec.irq)

		if master, slave := ctrl.Mask(); master != spec.expMaster || slave != spec.expSlave {
			t.Errorf("[spec %d] expected masks (0x%x, 0x%x); got (0x%x, 0x%x)", specIndex, spec.expMaster, spec.expSlave, master, slave)
		}
	}
}

func TestEOI(t *testing.T) {
	specs := []struct {
		irq uint8
		exp []portWrite
	}{
		{1, []portWrite{{MasterCommand, CmdEOI}}},
		{7, []portWrite{{MasterCommand, CmdEOI}}},
		{8, []portWrite{{SlaveCommand, CmdEOI}, {MasterCommand, CmdEOI}}},
		{15, []portWrite{{SlaveCommand, CmdEOI}, {MasterCommand, CmdEOI}}},
	}

	for _, spec := range specs {
		var (
			ports portRecorder
			ctrl  Controller
		)

		ctrl.Init(&ports, DefaultMasterOffset, DefaultSlaveOffset)
		ctrl.EOI(spec.irq)
		ports.check(t, spec.exp)
	}
}

func TestControllerDriverInterface(t *testing.T) {
	var (
		ports portRecorder
		ctrl  Controller
		dev   device.Driver = &ctrl
	)

	ctrl.Init(&ports, DefaultMasterOffset, DefaultSlaveOffset)

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}

	var buf bytes.Buffer
	if err := dev.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	if master, slave := ctrl.Mask(); master != 0xfb || slave != 0xff {
		t.Fatalf("expected only the cascade line to be unmasked; got masks (0x%x, 0x%x)", master, slave)
	}

	if got := ctrl.Vector(1); got != 33 {
		t.Fatalf("expected IRQ1 to raise vector 33; got %d", got)
	}

	if exp := "IRQ 0-7 at 0x20, IRQ 8-15 at 0x28\n"; buf.String() != exp {
		t.Fatalf("expected DriverInit to log %q; got %q", exp, buf.String())
	}
}
