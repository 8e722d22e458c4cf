/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package device

import (
	"errors"
	"testing"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/core"
	"jinr.ru/greenlab/go-fir/pkg/layers"
)

// memState is an in-memory register mirror for tests.
type memState struct {
	regs map[string]map[uint32]uint32
}

func newMemState() *memState {
	return &memState{regs: make(map[string]map[uint32]uint32)}
}

func (s *memState) SetReg(reg *layers.Reg, coreName string) error {
	m, ok := s.regs[coreName]
	if !ok {
		m = make(map[uint32]uint32)
		s.regs[coreName] = m
	}
	m[reg.Addr] = reg.Value
	return nil
}

func (s *memState) GetReg(addr uint32, coreName string) (*layers.Reg, error) {
	return &layers.Reg{Addr: addr, Value: s.regs[coreName][addr]}, nil
}

func (s *memState) GetRegAll(coreName string) ([]*layers.Reg, error) {
	var regs []*layers.Reg
	for addr, value := range s.regs[coreName] {
		regs = append(regs, &layers.Reg{Addr: addr, Value: value})
	}
	return regs, nil
}

func (s *memState) Close() {}

func testDevice(t *testing.T, taps int) (*Device, *memState) {
	t.Helper()
	state := newMemState()
	d, err := NewDevice(&config.Core{Name: "fir0", Taps: taps}, state)
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	return d, state
}

func TestDeviceFilter(t *testing.T) {
	d, _ := testDevice(t, 3)
	if err := d.SetCoefficients([]uint32{1, 0, 0}); err != nil {
		t.Fatalf("set coefficients: %v", err)
	}
	out, err := d.Filter([]uint32{5, 7, 9})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	want := []uint32{5, 7, 9}
	if len(out) != len(want) {
		t.Fatalf("outputs: got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("output %d: got %d, want %d", i, out[i], want[i])
		}
	}

	running, err := d.IsRunning()
	if err != nil {
		t.Fatalf("is running: %v", err)
	}
	if running {
		t.Fatal("device still running after filter")
	}
}

func TestDeviceFilterEmpty(t *testing.T) {
	d, _ := testDevice(t, 3)
	out, err := d.Filter(nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("outputs: got %v, want none", out)
	}
}

func TestDeviceCoefficients(t *testing.T) {
	d, _ := testDevice(t, 3)
	want := []uint32{10, 20, 30}
	if err := d.SetCoefficients(want); err != nil {
		t.Fatalf("set coefficients: %v", err)
	}
	coef, err := d.Coefficients()
	if err != nil {
		t.Fatalf("coefficients: %v", err)
	}
	for i := range want {
		if coef[i] != want[i] {
			t.Fatalf("coefficient %d: got %d, want %d", i, coef[i], want[i])
		}
	}
}

func TestDeviceTooManyCoefficients(t *testing.T) {
	d, _ := testDevice(t, 2)
	err := d.SetCoefficients([]uint32{1, 2, 3})
	var terr ErrTooManyCoefficients
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want ErrTooManyCoefficients", err)
	}
}

func TestDeviceDefaultTaps(t *testing.T) {
	d, _ := testDevice(t, 0)
	if got := d.Taps(); got != config.DefaultTaps {
		t.Fatalf("taps: got %d, want %d", got, config.DefaultTaps)
	}
}

func TestDeviceRegMirror(t *testing.T) {
	d, state := testDevice(t, 3)
	if err := d.RegWrite(&layers.Reg{Addr: core.AddrDataLength, Value: 0x42}); err != nil {
		t.Fatalf("reg write: %v", err)
	}
	if got := state.regs["fir0"][core.AddrDataLength]; got != 0x42 {
		t.Fatalf("mirrored value: got 0x%x, want 0x42", got)
	}

	reg, err := d.RegRead(core.AddrDataLength)
	if err != nil {
		t.Fatalf("reg read: %v", err)
	}
	if reg.Value != 0x42 {
		t.Fatalf("read value: got 0x%x, want 0x42", reg.Value)
	}
}

func TestDeviceRegReadAll(t *testing.T) {
	d, _ := testDevice(t, 3)
	if err := d.SetCoefficients([]uint32{10, 20, 30}); err != nil {
		t.Fatalf("set coefficients: %v", err)
	}
	regs, err := d.RegReadAll()
	if err != nil {
		t.Fatalf("reg read all: %v", err)
	}
	if want := int(RegAliasLimit) + d.Taps(); len(regs) != want {
		t.Fatalf("count: got %d, want %d", len(regs), want)
	}
	byAddr := make(map[uint32]uint32)
	for _, reg := range regs {
		byAddr[reg.Addr] = reg.Value
	}
	if byAddr[core.AddrAPCtrl] != core.CtrlIdle {
		t.Fatalf("AP_CTRL: got 0x%x, want 0x%x", byAddr[core.AddrAPCtrl], core.CtrlIdle)
	}
	if byAddr[CoefAddr(2)] != 30 {
		t.Fatalf("coefficient 2: got %d, want 30", byAddr[CoefAddr(2)])
	}
}

func TestDeviceStartStatusReset(t *testing.T) {
	d, _ := testDevice(t, 2)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	running, err := d.IsRunning()
	if err != nil {
		t.Fatalf("is running: %v", err)
	}
	if !running {
		t.Fatal("device not running after start")
	}

	if err := d.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	status, err := d.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != core.CtrlIdle {
		t.Fatalf("status after reset: got 0x%x, want 0x%x", status, core.CtrlIdle)
	}
}
