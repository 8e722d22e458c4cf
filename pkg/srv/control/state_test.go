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

package control

import (
	"context"
	"path/filepath"
	"testing"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/layers"
)

func testState(t *testing.T) *RegState {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), config.DBFile)
	state, err := NewRegState(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new reg state: %v", err)
	}
	t.Cleanup(state.Close)
	return state
}

func TestRegStateSetGet(t *testing.T) {
	state := testState(t)

	if err := state.SetReg(&layers.Reg{Addr: 0x10, Value: 0x1234}, config.DefaultCoreName); err != nil {
		t.Fatalf("set: %v", err)
	}
	reg, err := state.GetReg(0x10, config.DefaultCoreName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reg.Value != 0x1234 {
		t.Fatalf("value: got 0x%x, want 0x1234", reg.Value)
	}

	// overwrite
	if err := state.SetReg(&layers.Reg{Addr: 0x10, Value: 0x5678}, config.DefaultCoreName); err != nil {
		t.Fatalf("set: %v", err)
	}
	reg, err = state.GetReg(0x10, config.DefaultCoreName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reg.Value != 0x5678 {
		t.Fatalf("value after overwrite: got 0x%x, want 0x5678", reg.Value)
	}
}

func TestRegStateGetAll(t *testing.T) {
	state := testState(t)

	want := map[uint32]uint32{0x00: 4, 0x10: 3, 0x84: 20}
	for addr, value := range want {
		if err := state.SetReg(&layers.Reg{Addr: addr, Value: value}, config.DefaultCoreName); err != nil {
			t.Fatalf("set 0x%x: %v", addr, err)
		}
	}

	regs, err := state.GetRegAll(config.DefaultCoreName)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(regs) != len(want) {
		t.Fatalf("count: got %d, want %d", len(regs), len(want))
	}
	for _, reg := range regs {
		if want[reg.Addr] != reg.Value {
			t.Fatalf("addr 0x%x: got 0x%x, want 0x%x", reg.Addr, reg.Value, want[reg.Addr])
		}
	}
}

func TestRegStateUnknownCore(t *testing.T) {
	state := testState(t)
	if err := state.SetReg(&layers.Reg{Addr: 0, Value: 1}, "nope"); err == nil {
		t.Fatal("set for unknown core accepted")
	}
	if _, err := state.GetReg(0, "nope"); err == nil {
		t.Fatal("get for unknown core accepted")
	}
}
