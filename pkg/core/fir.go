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

// State is the externally visible filter state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "Running"
	}
	return "Idle"
}

// phase is the position of the Running state machine within a scan.
type phase uint8

const (
	// phLoad: scan boundary, ingress armed, waiting for the next sample
	phLoad phase = iota
	// phScan: issuing one tap/sample read pair per cycle
	phScan
	// phDrain: final scan issued, pipeline tail draining into the output
	phDrain
)

// macTag identifies a tap travelling through the MAC pipeline.
type macTag struct {
	valid   bool
	lastTap bool // final tap of its scan; its accumulation completes the sum
	endScan bool // belongs to the final scan of the run
}

// macStage is one slot of the two-slot product pipeline: the tag plus the
// product computed for it.
type macStage struct {
	macTag
	prod uint32
}

// outHold is the one-deep egress register. Under backpressure the word and
// its end flag are held here untouched until the consumer accepts them.
type outHold struct {
	valid bool
	data  uint32
	last  bool
}

// stepPipeline advances the MAC pipeline, the ingress handshake and the run
// lifecycle by one cycle. It must not be called on a stalled cycle.
func (c *Core) stepPipeline(cy *cycle) {
	// Stage 2: fold the previous cycle's product into the running sum.
	// The product of a scan's final tap completes the sum; the completed
	// word moves to the egress register and the accumulator restarts from
	// the next scan's first product.
	if c.s2.valid {
		if c.s2.lastTap {
			c.outReg = outHold{valid: true, data: c.sum + c.s2.prod, last: c.s2.endScan}
			c.sum = 0
		} else {
			c.sum += c.s2.prod
		}
	}

	// Stage 1: multiply the words the stores returned for the tap issued
	// in the previous cycle.
	c.s2 = macStage{macTag: c.s1, prod: c.coef.Q() * c.samp.Q()}
	c.s1 = macTag{}

	switch {
	case c.state == StateIdle:
		if cy.startPend {
			c.regs.startPending = false
			c.regs.done = false
			c.state = StateRunning
			c.ph = phLoad
			c.tap = 0
			c.rd = 0
			c.wr = 0
			c.newest = 0
			c.sum = 0
			c.s1 = macTag{}
			c.s2 = macStage{}
			c.pendingEnd = false
		}

	case c.ph == phLoad:
		if cy.out.InReady && cy.in.InValid {
			cy.sampWrite = addrSource{valid: true, addr: uint32(c.wr) * WordBytes}
			cy.sampIn.WriteMask = MaskAll
			cy.sampIn.WriteData = cy.in.In.Data
			c.newest = c.wr
			c.wr = (c.wr + 1) % c.taps
			if cy.in.In.Last {
				c.pendingEnd = true
			}
			c.ph = phScan
			c.tap = 0
			c.rd = c.newest
		}

	case c.ph == phScan:
		c.s1 = macTag{
			valid:   true,
			lastTap: c.tap == c.taps-1,
			endScan: c.pendingEnd,
		}
		cy.coefRead = addrSource{valid: true, addr: uint32(c.tap) * WordBytes}
		cy.sampRead = addrSource{valid: true, addr: uint32(c.rd) * WordBytes}
		if c.tap == c.taps-1 {
			c.tap = 0
			if c.pendingEnd {
				// no further ingress; the in-flight scan drains out
				c.ph = phDrain
			} else {
				c.ph = phLoad
			}
		} else {
			c.tap++
			c.rd = (c.rd + c.taps - 1) % c.taps
		}

	case c.ph == phDrain:
		// nothing left to issue; stages 1 and 2 carry the tail
	}
}

// completeRun is invoked when the egress word carrying the end flag has been
// accepted by the consumer.
func (c *Core) completeRun() {
	c.state = StateIdle
	c.ph = phLoad
	c.regs.done = true
	c.regs.idle = true
	c.pendingEnd = false
}
