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
	"errors"
	"testing"
)

// refFilter is the direct convolution the cycle model must reproduce:
// out[k] = sum over i of coef[i]*x[k-i], with x[j] = 0 for j < 0 and uint32
// wraparound. Coefficients beyond len(coef) are zero, as in a store that was
// only partially programmed.
func refFilter(taps int, coef, samples []uint32) []uint32 {
	out := make([]uint32, len(samples))
	for k := range samples {
		var acc uint32
		for i := 0; i < taps && i <= k; i++ {
			var c uint32
			if i < len(coef) {
				c = coef[i]
			}
			acc += c * samples[k-i]
		}
		out[k] = acc
	}
	return out
}

func equalWords(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterIdentity(t *testing.T) {
	drv := NewDriver(New(3))
	samples := []uint32{5, 7, 9, 11}
	out, err := drv.Filter([]uint32{1, 0, 0}, samples)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !equalWords(out, samples) {
		t.Fatalf("identity filter: got %v, want %v", out, samples)
	}
}

func TestFilterDelay(t *testing.T) {
	// a single coefficient at tap d delays the input by d samples
	drv := NewDriver(New(4))
	samples := []uint32{10, 20, 30, 40, 50}
	out, err := drv.Filter([]uint32{0, 0, 1, 0}, samples)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	want := []uint32{0, 0, 10, 20, 30}
	if !equalWords(out, want) {
		t.Fatalf("delay filter: got %v, want %v", out, want)
	}
}

func TestFilterConvolution(t *testing.T) {
	tests := []struct {
		name    string
		taps    int
		coef    []uint32
		samples []uint32
	}{
		{
			name:    "short burst",
			taps:    5,
			coef:    []uint32{3, 1, 4, 1, 5},
			samples: []uint32{2, 7, 1, 8},
		},
		{
			name:    "burst longer than window",
			taps:    4,
			coef:    []uint32{2, 0, 1, 3},
			samples: []uint32{9, 3, 7, 5, 4, 6, 1, 8, 2, 7, 3, 9},
		},
		{
			name:    "partially programmed store",
			taps:    6,
			coef:    []uint32{1, 2},
			samples: []uint32{4, 5, 6, 7, 8},
		},
		{
			name:    "single tap",
			taps:    1,
			coef:    []uint32{7},
			samples: []uint32{1, 2, 3},
		},
		{
			name:    "wraparound arithmetic",
			taps:    3,
			coef:    []uint32{0xFFFFFFFF, 0x80000000, 2},
			samples: []uint32{0xFFFFFFF0, 3, 0x12345678},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := NewDriver(New(tt.taps))
			out, err := drv.Filter(tt.coef, tt.samples)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			want := refFilter(tt.taps, tt.coef, tt.samples)
			if !equalWords(out, want) {
				t.Fatalf("got %v, want %v", out, want)
			}
		})
	}
}

func TestFilterAllZeroCoefficients(t *testing.T) {
	drv := NewDriver(New(4))
	samples := []uint32{9, 0xFFFFFFFF, 3, 7, 1}
	out, err := drv.Filter([]uint32{0, 0, 0, 0}, samples)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != len(samples) {
		t.Fatalf("got %d outputs, want %d", len(out), len(samples))
	}
	for i, word := range out {
		if word != 0 {
			t.Fatalf("output %d: got %d, want 0", i, word)
		}
	}
}

func TestFilterEmptyBurst(t *testing.T) {
	drv := NewDriver(New(3))
	out, err := drv.Filter([]uint32{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("empty burst: got %v, want no outputs", out)
	}
	if got := drv.Core().State(); got != StateIdle {
		t.Fatalf("state after empty burst: got %v, want Idle", got)
	}
}

func TestSampleWindowPersistsAcrossRuns(t *testing.T) {
	// the sample store is not cleared between runs; the first output of a
	// second run can see the tail of the first burst
	drv := NewDriver(New(2))
	coef := []uint32{0, 1}

	out, err := drv.Filter(coef, []uint32{5, 6})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if want := []uint32{0, 5}; !equalWords(out, want) {
		t.Fatalf("first run: got %v, want %v", out, want)
	}

	out, err = drv.Filter(coef, []uint32{7})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if want := []uint32{6}; !equalWords(out, want) {
		t.Fatalf("second run: got %v, want %v", out, want)
	}
}

func TestStatusLifecycle(t *testing.T) {
	drv := NewDriver(New(2))

	status, err := drv.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != CtrlIdle {
		t.Fatalf("status after reset: got 0x%x, want 0x%x", status, CtrlIdle)
	}

	// the start bit self-clears when the run begins, one cycle after the write
	drv.Start()
	drv.Idle(1)
	status, err = drv.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != 0 {
		t.Fatalf("status while running: got 0x%x, want 0", status)
	}
	if got := drv.Core().State(); got != StateRunning {
		t.Fatalf("state after start: got %v, want Running", got)
	}

	if _, err := drv.Run([]uint32{1, 2}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := drv.WaitIdle(); err != nil {
		t.Fatalf("wait idle: %v", err)
	}

	// done and idle are sticky; reading does not clear them
	for i := 0; i < 2; i++ {
		status, err = drv.Status()
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if status != CtrlDone|CtrlIdle {
			t.Fatalf("status after run (read %d): got 0x%x, want 0x%x", i, status, CtrlDone|CtrlIdle)
		}
	}

	// the next start clears done
	drv.Start()
	drv.Idle(1)
	status, err = drv.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != 0 {
		t.Fatalf("status after restart: got 0x%x, want 0", status)
	}
}

func TestStartWhileRunningDiscarded(t *testing.T) {
	drv := NewDriver(New(2))
	drv.Start()
	drv.Idle(2)
	if got := drv.Core().State(); got != StateRunning {
		t.Fatalf("state after start: got %v, want Running", got)
	}

	// a second start while the run is in flight must not queue another run
	drv.Start()

	if _, err := drv.Run([]uint32{3, 4}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := drv.WaitIdle(); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
	drv.Idle(10)
	if got := drv.Core().State(); got != StateIdle {
		t.Fatalf("state after run: got %v, want Idle", got)
	}
}

func TestDataLengthRegister(t *testing.T) {
	drv := NewDriver(New(2))
	drv.WriteReg(AddrDataLength, 0x1234)
	got, err := drv.ReadReg(AddrDataLength)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x1234 {
		t.Fatalf("DATA_LENGTH readback: got 0x%x, want 0x1234", got)
	}

	// the register is informational; completion is driven by the end flag
	drv.WriteReg(AddrDataLength, 999)
	drv.Start()
	out, err := drv.Run([]uint32{1, 2, 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("outputs with mismatched DATA_LENGTH: got %d, want 3", len(out))
	}
	if err := drv.WaitIdle(); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
}

func TestCoefficientReadback(t *testing.T) {
	drv := NewDriver(New(3))
	coef := []uint32{10, 20, 30}
	drv.LoadCoefficients(coef)
	for i, want := range coef {
		got, err := drv.ReadCoefficient(i)
		if err != nil {
			t.Fatalf("read coefficient %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("coefficient %d: got %d, want %d", i, got, want)
		}
	}
}

func TestUnknownReadAliasesCoefPort(t *testing.T) {
	// a read of an unmapped address responds from the coefficient store read
	// port, which still shows the last addressed word
	drv := NewDriver(New(3))
	drv.LoadCoefficients([]uint32{10, 20, 30})
	got, err := drv.ReadReg(0x04)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 30 {
		t.Fatalf("aliased read: got %d, want 30", got)
	}
}

func TestPartialWriteHandshakeIgnored(t *testing.T) {
	c := New(2)
	// address without data, then data without address
	c.Step(Inputs{AWValid: true, AWAddr: AddrAPCtrl, WData: CtrlStart})
	c.Step(Inputs{WValid: true, WData: CtrlStart})
	c.Step(Inputs{})
	if got := c.State(); got != StateIdle {
		t.Fatalf("state after partial handshakes: got %v, want Idle", got)
	}
	drv := NewDriver(c)
	status, err := drv.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != CtrlIdle {
		t.Fatalf("status after partial handshakes: got 0x%x, want 0x%x", status, CtrlIdle)
	}
}

func TestReadResponseBuffer(t *testing.T) {
	c := New(2)

	out := c.Step(Inputs{ARValid: true, ARAddr: AddrAPCtrl})
	if !out.ARReady {
		t.Fatal("ARReady deasserted with no response pending")
	}

	// the response is held, and no further request is accepted, until the
	// consumer takes it
	for i := 0; i < 3; i++ {
		out = c.Step(Inputs{ARValid: true, ARAddr: AddrDataLength})
		if !out.RValid {
			t.Fatalf("cycle %d: RValid not asserted", i)
		}
		if out.RData != CtrlIdle {
			t.Fatalf("cycle %d: RData got 0x%x, want 0x%x", i, out.RData, CtrlIdle)
		}
		if out.ARReady {
			t.Fatalf("cycle %d: ARReady asserted while response held", i)
		}
	}

	out = c.Step(Inputs{RReady: true})
	if !out.RValid {
		t.Fatal("RValid dropped before acceptance")
	}
	out = c.Step(Inputs{})
	if out.RValid {
		t.Fatal("RValid still asserted after acceptance")
	}
	if !out.ARReady {
		t.Fatal("ARReady not reasserted after acceptance")
	}
}

func TestReadSeesPreWriteValue(t *testing.T) {
	c := New(2)

	c.Step(Inputs{AWValid: true, AWAddr: AddrDataLength, WValid: true, WData: 0x11})

	// a write and a read accepted in the same cycle: the response must carry
	// the value held at the previous clock edge, not the incoming one
	c.Step(Inputs{
		AWValid: true, AWAddr: AddrDataLength, WValid: true, WData: 0x22,
		ARValid: true, ARAddr: AddrDataLength,
	})
	out := c.Step(Inputs{RReady: true})
	if !out.RValid {
		t.Fatal("RValid not asserted")
	}
	if out.RData != 0x11 {
		t.Fatalf("RData got 0x%x, want pre-write value 0x11", out.RData)
	}

	// the write itself landed and is visible to the next read
	c.Step(Inputs{ARValid: true, ARAddr: AddrDataLength})
	out = c.Step(Inputs{RReady: true})
	if !out.RValid {
		t.Fatal("RValid not asserted on second read")
	}
	if out.RData != 0x22 {
		t.Fatalf("RData got 0x%x, want 0x22", out.RData)
	}
}

func TestEgressBackpressure(t *testing.T) {
	c := New(2)
	drv := NewDriver(c)
	drv.LoadCoefficients([]uint32{1, 0})
	drv.Start()

	samples := []uint32{3, 4}
	idx := 0
	step := func(outReady bool) Outputs {
		in := Inputs{OutReady: outReady}
		if idx < len(samples) {
			in.InValid = true
			in.In = Frame{Data: samples[idx], Last: idx == len(samples)-1}
		}
		out := c.Step(in)
		if in.InValid && out.InReady {
			idx++
		}
		return out
	}

	// stream with the consumer stalled until the first output shows up
	var out Outputs
	for i := 0; ; i++ {
		if i > 100 {
			t.Fatal("no output produced")
		}
		out = step(false)
		if out.OutValid {
			break
		}
	}
	if out.Out.Data != 3 {
		t.Fatalf("first output: got %d, want 3", out.Out.Data)
	}

	// the held word must not change or disappear under backpressure
	for i := 0; i < 5; i++ {
		out = step(false)
		if !out.OutValid || out.Out.Data != 3 {
			t.Fatalf("held output changed: valid=%t data=%d", out.OutValid, out.Out.Data)
		}
	}

	// release the consumer and collect the rest of the burst
	var collected []uint32
	collected = append(collected, out.Out.Data)
	last := false
	for i := 0; !last; i++ {
		if i > 100 {
			t.Fatal("burst never completed")
		}
		out = step(true)
		if out.OutValid {
			// the word accepted in the previous cycle is gone; this is
			// either the same word still being offered or the next one
			if len(collected) == 0 || collected[len(collected)-1] != out.Out.Data {
				collected = append(collected, out.Out.Data)
			}
			last = out.Out.Last
		}
	}
	want := []uint32{3, 4}
	if !equalWords(collected, want) {
		t.Fatalf("collected %v, want %v", collected, want)
	}
	if err := drv.WaitIdle(); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
}

func TestResetDuringRun(t *testing.T) {
	drv := NewDriver(New(3))
	drv.LoadCoefficients([]uint32{10, 20, 30})
	drv.Start()
	drv.Cycle(Inputs{InValid: true, In: Frame{Data: 1}, OutReady: true})

	out := drv.Core().Step(Inputs{Reset: true})
	if out != (Outputs{}) {
		t.Fatalf("outputs during reset: got %+v, want zero", out)
	}
	if got := drv.Core().State(); got != StateIdle {
		t.Fatalf("state after reset: got %v, want Idle", got)
	}
	status, err := drv.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != CtrlIdle {
		t.Fatalf("status after reset: got 0x%x, want 0x%x", status, CtrlIdle)
	}

	// the stores are external and keep their contents across reset
	got, err := drv.ReadCoefficient(2)
	if err != nil {
		t.Fatalf("read coefficient: %v", err)
	}
	if got != 30 {
		t.Fatalf("coefficient after reset: got %d, want 30", got)
	}
}

func TestStoreGeometryMismatch(t *testing.T) {
	_, err := NewWithStores(NewSRAM(3), NewSRAM(4))
	var gerr ErrStoreGeometry
	if !errors.As(err, &gerr) {
		t.Fatalf("got %v, want ErrStoreGeometry", err)
	}
}

func TestRunWatchdog(t *testing.T) {
	drv := NewDriver(New(2))
	drv.Watchdog = 50
	// the core was never started, so nothing handshakes
	_, err := drv.Run([]uint32{1})
	var werr ErrWatchdog
	if !errors.As(err, &werr) {
		t.Fatalf("got %v, want ErrWatchdog", err)
	}
}
