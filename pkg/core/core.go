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

// Package core is a cycle-stepped model of a fixed-length FIR filter
// accelerator: a memory-mapped control register interface, two external
// word stores (coefficients and samples), streaming ingress/egress
// handshakes and a two-stage multiply-accumulate pipeline. The whole core
// is one state value advanced by Step; there is no hidden global state and
// no same-cycle read-after-write visibility between state elements.
package core

// Core holds every register of the accelerator. All fields update
// atomically per Step based on values sampled at the start of the cycle.
type Core struct {
	taps int
	coef *SRAM
	samp *SRAM

	state State
	ph    phase
	regs  regBank

	// read response path: a request accepted in cycle t latches its
	// response here, which becomes visible in cycle t+1 and is then held
	// until the consumer takes it
	arPending arReq
	rValid    bool
	rData     uint32

	// sample window bookkeeping
	wr         int // next slot the ingress write will fill
	newest     int // slot of the most recently accepted sample
	rd         int // sample read pointer, walks backward from newest
	tap        int
	pendingEnd bool

	// MAC pipeline
	s1     macTag
	s2     macStage
	sum    uint32
	outReg outHold

	// store address buses hold their last value when nothing drives them
	coefAddr uint32
	sampAddr uint32
}

// arReq is an accepted register read waiting for its response cycle.
type arReq struct {
	valid    bool
	fromCoef bool
	data     uint32
}

// cycle is the combinational scratchpad of a single Step call.
type cycle struct {
	in  Inputs
	out Outputs

	coefIn MemIn
	sampIn MemIn

	coefWrite addrSource
	coefRead  addrSource
	sampWrite addrSource
	sampRead  addrSource

	startPend bool
	regSnap   regBank
	consumed  bool
	stall     bool
}

// New allocates a core together with its two stores, one word per tap.
func New(taps int) *Core {
	c, _ := NewWithStores(NewSRAM(taps), NewSRAM(taps))
	return c
}

// NewWithStores builds a core over externally owned stores. Both stores
// must hold exactly one word per tap.
func NewWithStores(coef, samp *SRAM) (*Core, error) {
	if coef.Words() < 1 || coef.Words() != samp.Words() {
		return nil, ErrStoreGeometry{Coef: coef.Words(), Samp: samp.Words()}
	}
	c := &Core{
		taps: coef.Words(),
		coef: coef,
		samp: samp,
	}
	c.reset()
	return c, nil
}

func (c *Core) Taps() int {
	return c.taps
}

func (c *Core) State() State {
	return c.state
}

// Coef exposes the coefficient store. Host-side diagnostics only.
func (c *Core) Coef() *SRAM {
	return c.coef
}

// Samp exposes the sample store. Host-side diagnostics only.
func (c *Core) Samp() *SRAM {
	return c.samp
}

// Step advances the core by exactly one clock cycle and returns the port
// outputs the environment observes during that cycle.
func (c *Core) Step(in Inputs) Outputs {
	if in.Reset {
		c.reset()
		return Outputs{}
	}

	cy := &cycle{
		in:     in,
		coefIn: MemIn{Enable: true},
		sampIn: MemIn{Enable: true},
		// the run lifecycle sees the start bit as registered one cycle
		// earlier; a write landing this cycle is observed in the next
		startPend: c.regs.startPending,
		// read responses latch from the register values as of the last
		// clock edge; a write landing this cycle is not visible to a read
		// accepted in the same cycle
		regSnap: c.regs,
	}

	// latch the response for a read accepted in the previous cycle
	if c.arPending.valid {
		c.rValid = true
		if c.arPending.fromCoef {
			c.rData = c.coef.Q()
		} else {
			c.rData = c.arPending.data
		}
		c.arPending = arReq{}
	}

	cy.consumed = c.outReg.valid && in.OutReady
	completing := c.s2.valid && c.s2.lastTap
	cy.stall = completing && c.outReg.valid && !cy.consumed

	cy.out.AWReady = true
	cy.out.WReady = true
	cy.out.ARReady = !c.rValid
	cy.out.RValid = c.rValid
	cy.out.RData = c.rData
	cy.out.OutValid = c.outReg.valid
	cy.out.Out = Frame{Data: c.outReg.data, Last: c.outReg.last}
	cy.out.InReady = c.state == StateRunning && c.ph == phLoad && !cy.stall

	// egress acceptance; accepting the end-flagged word completes the run
	if cy.consumed {
		last := c.outReg.last
		c.outReg = outHold{}
		if last {
			c.completeRun()
		}
	}

	c.stepRegWrite(cy)
	c.stepRegRead(cy)

	if !cy.stall {
		c.stepPipeline(cy)
	}

	// resolve the store address buses and clock the stores; the write
	// source wins over the read source on the coefficient bus
	c.coefAddr = muxAddr(cy.coefWrite, cy.coefRead, c.coefAddr)
	cy.coefIn.Addr = c.coefAddr
	if cy.coefWrite.valid {
		cy.coefIn.WriteMask = MaskAll
		cy.coefIn.WriteData = cy.in.WData
	}
	c.coef.Clock(cy.coefIn)

	c.sampAddr = muxAddr(cy.sampWrite, cy.sampRead, c.sampAddr)
	cy.sampIn.Addr = c.sampAddr
	c.samp.Clock(cy.sampIn)

	return cy.out
}

// reset returns every register to its power-on value. The stores are
// external collaborators and keep their contents.
func (c *Core) reset() {
	c.state = StateIdle
	c.ph = phLoad
	c.regs = regBank{idle: true}
	c.arPending = arReq{}
	c.rValid = false
	c.rData = 0
	c.wr = 0
	c.newest = 0
	c.rd = 0
	c.tap = 0
	c.pendingEnd = false
	c.s1 = macTag{}
	c.s2 = macStage{}
	c.sum = 0
	c.outReg = outHold{}
	c.coefAddr = 0
	c.sampAddr = 0
}
