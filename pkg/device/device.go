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

// Package device presents simulated accelerator instances to the serving
// layer. A Device owns one core and its cycle driver; all host access goes
// through the core's register and stream handshakes, never behind them.
package device

import (
	"sync"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/core"
	deviceifc "jinr.ru/greenlab/go-fir/pkg/device/ifc"
	"jinr.ru/greenlab/go-fir/pkg/layers"
	"jinr.ru/greenlab/go-fir/pkg/log"
	"jinr.ru/greenlab/go-fir/pkg/srv/control/ifc"
)

type Device struct {
	*config.Core
	drv *core.Driver

	// one host operation at a time; the register interface itself has no
	// notion of concurrent masters
	mu    sync.Mutex
	state ifc.State
}

var _ deviceifc.Device = &Device{}

// NewDevice ...
func NewDevice(cfgCore *config.Core, state ifc.State) (*Device, error) {
	taps := cfgCore.Taps
	if taps <= 0 {
		taps = config.DefaultTaps
	}
	d := &Device{
		Core:  cfgCore,
		drv:   core.NewDriver(core.New(taps)),
		state: state,
	}
	return d, nil
}

func (d *Device) GetName() string {
	return d.Name
}

func (d *Device) Taps() int {
	return d.drv.Core().Taps()
}

func (d *Device) mirror(reg *layers.Reg) {
	if d.state == nil {
		return
	}
	if err := d.state.SetReg(reg, d.Name); err != nil {
		log.Error("Error while mirroring register: core: %s addr: 0x%02x: %s", d.Name, reg.Addr, err)
	}
}

// RegWrite drives one write through the register interface.
func (d *Device) RegWrite(reg *layers.Reg) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Writing register: core: %s addr: 0x%02x value: 0x%08x", d.Name, reg.Addr, reg.Value)
	d.drv.WriteReg(reg.Addr, reg.Value)
	d.mirror(reg)
	return nil
}

// RegRead drives one read through the register interface.
func (d *Device) RegRead(addr uint32) (*layers.Reg, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regRead(addr)
}

func (d *Device) regRead(addr uint32) (*layers.Reg, error) {
	value, err := d.drv.ReadReg(addr)
	if err != nil {
		return nil, err
	}
	reg := &layers.Reg{Addr: addr, Value: value}
	d.mirror(reg)
	return reg, nil
}

// RegReadAll reads the control registers and the whole coefficient window.
func (d *Device) RegReadAll() ([]*layers.Reg, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var regs []*layers.Reg
	for alias := RegAlias(0); alias < RegAliasLimit; alias++ {
		reg, err := d.regRead(RegMap[alias])
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	for i := 0; i < d.Taps(); i++ {
		reg, err := d.regRead(CoefAddr(i))
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// SetCoefficients programs the filter taps through the coefficient window.
func (d *Device) SetCoefficients(coef []uint32) error {
	if len(coef) > d.Taps() {
		return ErrTooManyCoefficients{Got: len(coef), Taps: d.Taps()}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Loading %d coefficients: core: %s", len(coef), d.Name)
	for i, word := range coef {
		d.drv.WriteReg(CoefAddr(i), word)
		d.mirror(&layers.Reg{Addr: CoefAddr(i), Value: word})
	}
	return nil
}

// Coefficients reads the taps back through the diagnostic register path.
func (d *Device) Coefficients() ([]uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	coef := make([]uint32, d.Taps())
	for i := range coef {
		word, err := d.drv.ReadCoefficient(i)
		if err != nil {
			return nil, err
		}
		coef[i] = word
	}
	return coef, nil
}

// Start requests a run. The core discards the request if it is already
// Running; the host is expected to poll the idle bit first.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Starting run: core: %s", d.Name)
	d.drv.Start()
	return nil
}

// Status returns the AP_CTRL word.
func (d *Device) Status() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drv.Status()
}

func (d *Device) IsRunning() (bool, error) {
	status, err := d.Status()
	if err != nil {
		return false, err
	}
	return status&core.CtrlIdle == 0, nil
}

// Filter streams one burst through the core using the coefficients
// currently programmed and returns the output burst.
func (d *Device) Filter(samples []uint32) ([]uint32, error) {
	if len(samples) == 0 {
		return []uint32{}, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Filtering %d samples: core: %s", len(samples), d.Name)
	d.drv.WriteReg(core.AddrDataLength, uint32(len(samples)))
	d.drv.Start()
	outputs, err := d.drv.Run(samples)
	if err != nil {
		return outputs, err
	}
	if err := d.drv.WaitIdle(); err != nil {
		return outputs, err
	}
	return outputs, nil
}

// Reset applies a synchronous reset to the core.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Debug("Resetting core: %s", d.Name)
	d.drv.Reset()
	return nil
}
