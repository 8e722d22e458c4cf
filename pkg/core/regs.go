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

// Register map. Addresses are byte addresses on a 32-bit word bus.
// Any write whose address has CoefWindowBit set is routed to the coefficient
// store at offset addr&^CoefWindowBit. Reads outside the control addresses
// fall through to the coefficient store read port.
const (
	AddrAPCtrl     uint32 = 0x00
	AddrDataLength uint32 = 0x10
	CoefWindowBit  uint32 = 0x80
)

// AP_CTRL bits.
const (
	CtrlStart uint32 = 1 << 0
	CtrlDone  uint32 = 1 << 1
	CtrlIdle  uint32 = 1 << 2
)

// regBank holds the control register state. startPending is write-1-to-set
// and self-clears when consumed by the run lifecycle; done and idle are
// sticky until the next run starts.
type regBank struct {
	startPending bool
	done         bool
	idle         bool
	dataLength   uint32
}

func (r *regBank) ctrlWord() uint32 {
	var word uint32
	if r.startPending {
		word |= CtrlStart
	}
	if r.done {
		word |= CtrlDone
	}
	if r.idle {
		word |= CtrlIdle
	}
	return word
}

// isCoefAddr reports whether a register address decodes into the coefficient
// window. The decode tests the window bit only; the nominal window base is
// never matched exactly.
func isCoefAddr(addr uint32) bool {
	return addr&CoefWindowBit != 0
}

func coefOffset(addr uint32) uint32 {
	return addr &^ CoefWindowBit
}

// addrSource is one tagged candidate for a store's single address bus.
type addrSource struct {
	valid bool
	addr  uint32
}

// muxAddr resolves the address bus for one cycle. The write source wins over
// the read source when both are asserted; with neither asserted the bus
// holds its previous value.
func muxAddr(write, read addrSource, held uint32) uint32 {
	switch {
	case write.valid:
		return write.addr
	case read.valid:
		return read.addr
	default:
		return held
	}
}

// stepRegWrite decodes the register write channel. A write takes effect only
// when address and data are valid in the same cycle; partial handshakes have
// no effect. Unknown addresses are ignored silently.
func (c *Core) stepRegWrite(cy *cycle) {
	if !cy.in.AWValid || !cy.in.WValid {
		return
	}
	addr := cy.in.AWAddr
	switch {
	case isCoefAddr(addr):
		cy.coefWrite = addrSource{valid: true, addr: coefOffset(addr)}
	case addr == AddrAPCtrl:
		// a start observed while Running is discarded, not queued
		if cy.in.WData == CtrlStart && c.state == StateIdle {
			c.regs.startPending = true
			c.regs.idle = false
		}
	case addr == AddrDataLength:
		c.regs.dataLength = cy.in.WData
	}
}

// stepRegRead decodes the register read channel. Control addresses latch the
// value held at the last clock edge, so a write accepted in the same cycle is
// not visible to the read; every other address, including the
// coefficient window, responds with the coefficient store's read port output
// one cycle later. While Running the MAC pipeline owns the read address, so
// such reads alias to whatever the port currently shows.
func (c *Core) stepRegRead(cy *cycle) {
	if cy.out.ARReady && cy.in.ARValid {
		switch cy.in.ARAddr {
		case AddrAPCtrl:
			c.arPending = arReq{valid: true, data: cy.regSnap.ctrlWord()}
		case AddrDataLength:
			c.arPending = arReq{valid: true, data: cy.regSnap.dataLength}
		default:
			c.arPending = arReq{valid: true, fromCoef: true}
			if c.state == StateIdle && isCoefAddr(cy.in.ARAddr) {
				cy.coefRead = addrSource{valid: true, addr: coefOffset(cy.in.ARAddr)}
			}
		}
	}
	if c.rValid && cy.in.RReady {
		c.rValid = false
	}
}
