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

package core

import (
	"fmt"
)

const (
	// DefaultWatchdog is the number of cycles a host operation may go
	// without a handshake before the driver gives up.
	DefaultWatchdog = 10000
)

// Driver clocks a core from the host side: it runs the register handshakes
// and the stream handshakes cycle by cycle so that servers, commands and
// tests do not have to. Every potentially unbounded wait is guarded by a
// cycle watchdog.
type Driver struct {
	core     *Core
	Watchdog int
}

func NewDriver(c *Core) *Driver {
	return &Driver{
		core:     c,
		Watchdog: DefaultWatchdog,
	}
}

func (d *Driver) Core() *Core {
	return d.core
}

// Cycle steps the core once with the given port inputs.
func (d *Driver) Cycle(in Inputs) Outputs {
	return d.core.Step(in)
}

// Idle steps the core with no port activity.
func (d *Driver) Idle(cycles int) {
	for i := 0; i < cycles; i++ {
		d.core.Step(Inputs{})
	}
}

// Reset applies a synchronous reset cycle.
func (d *Driver) Reset() {
	d.core.Step(Inputs{Reset: true})
}

// WriteReg performs one register write. Write-ready is unconditional once
// out of reset, so a single cycle always suffices.
func (d *Driver) WriteReg(addr, data uint32) {
	d.core.Step(Inputs{
		AWValid: true,
		AWAddr:  addr,
		WValid:  true,
		WData:   data,
	})
}

// ReadReg performs one register read through the request/response handshake.
func (d *Driver) ReadReg(addr uint32) (uint32, error) {
	accepted := false
	for i := 0; i < d.Watchdog; i++ {
		if !accepted {
			out := d.core.Step(Inputs{ARValid: true, ARAddr: addr})
			accepted = out.ARReady
			continue
		}
		out := d.core.Step(Inputs{RReady: true})
		if out.RValid {
			return out.RData, nil
		}
	}
	return 0, ErrWatchdog{Op: fmt.Sprintf("register read 0x%02x", addr), Cycles: d.Watchdog}
}

// LoadCoefficients writes the taps into the coefficient window, one word
// per tap starting at offset 0.
func (d *Driver) LoadCoefficients(coef []uint32) {
	for i, word := range coef {
		d.WriteReg(CoefWindowBit|uint32(i*WordBytes), word)
	}
}

// ReadCoefficient reads tap i back through the diagnostic register path.
func (d *Driver) ReadCoefficient(i int) (uint32, error) {
	return d.ReadReg(CoefWindowBit | uint32(i*WordBytes))
}

// Start requests a run. The request is discarded by the core if a run is
// already in flight.
func (d *Driver) Start() {
	d.WriteReg(AddrAPCtrl, CtrlStart)
}

// Status returns the AP_CTRL word: bit0 start pending, bit1 done, bit2 idle.
func (d *Driver) Status() (uint32, error) {
	return d.ReadReg(AddrAPCtrl)
}

// WaitIdle polls AP_CTRL until the idle bit is set.
func (d *Driver) WaitIdle() error {
	for i := 0; i < d.Watchdog; i++ {
		status, err := d.Status()
		if err != nil {
			return err
		}
		if status&CtrlIdle != 0 {
			return nil
		}
	}
	return ErrWatchdog{Op: "wait idle", Cycles: d.Watchdog}
}

// Run streams samples into a started core and collects the outputs until
// the end-of-burst flag propagates to the egress stream. The watchdog
// counts cycles without a handshake on either stream.
func (d *Driver) Run(samples []uint32) ([]uint32, error) {
	outputs := make([]uint32, 0, len(samples))
	idx := 0
	stale := 0
	for stale < d.Watchdog {
		in := Inputs{OutReady: true}
		if idx < len(samples) {
			in.InValid = true
			in.In = Frame{
				Data: samples[idx],
				Last: idx == len(samples)-1,
			}
		}
		out := d.core.Step(in)
		progress := false
		if in.InValid && out.InReady {
			idx++
			progress = true
		}
		if out.OutValid {
			outputs = append(outputs, out.Out.Data)
			progress = true
			if out.Out.Last {
				return outputs, nil
			}
		}
		if progress {
			stale = 0
		} else {
			stale++
		}
	}
	return outputs, ErrWatchdog{Op: "stream run", Cycles: d.Watchdog}
}

// Filter runs one complete job: program the coefficients and the data
// length, start the core, stream the samples through and wait for the core
// to report done. An empty sample burst is a no-op.
func (d *Driver) Filter(coef, samples []uint32) ([]uint32, error) {
	if len(samples) == 0 {
		return []uint32{}, nil
	}
	d.LoadCoefficients(coef)
	d.WriteReg(AddrDataLength, uint32(len(samples)))
	d.Start()
	outputs, err := d.Run(samples)
	if err != nil {
		return outputs, err
	}
	if err := d.WaitIdle(); err != nil {
		return outputs, err
	}
	return outputs, nil
}
