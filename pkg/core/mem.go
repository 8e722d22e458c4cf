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

const (
	// WordBytes is the width of the data bus in bytes. All store addresses
	// are byte addresses aligned to this width.
	WordBytes = 4
	// MaskAll enables all four byte lanes of a word write.
	MaskAll = 0xF
)

// MemIn carries one cycle worth of inputs for a store port. The port has a
// single address bus; a non-zero write mask means the cycle performs a write
// at Addr, otherwise the cycle reads Addr.
type MemIn struct {
	Enable    bool
	WriteMask uint8
	Addr      uint32
	WriteData uint32
}

// SRAM models the external store adapter contract: a word-addressed memory
// with byte-granular write enables and a one-cycle read latency. The read
// port output Q holds the word addressed in the previous Clock call.
type SRAM struct {
	words []uint32
	q     uint32
}

func NewSRAM(words int) *SRAM {
	return &SRAM{
		words: make([]uint32, words),
	}
}

// Words returns the capacity of the store in words.
func (m *SRAM) Words() int {
	return len(m.words)
}

// Q returns the current read port output.
func (m *SRAM) Q() uint32 {
	return m.q
}

// Clock advances the store by one cycle. Addresses wrap modulo capacity.
// Writes are visible to a read of the same address in the same cycle.
func (m *SRAM) Clock(in MemIn) {
	if !in.Enable {
		return
	}
	i := m.index(in.Addr)
	if in.WriteMask != 0 {
		m.words[i] = maskWord(m.words[i], in.WriteData, in.WriteMask)
	}
	m.q = m.words[i]
}

// Peek reads a word directly, bypassing the port. Diagnostic use only.
func (m *SRAM) Peek(addr uint32) uint32 {
	return m.words[m.index(addr)]
}

func (m *SRAM) index(addr uint32) int {
	return int(addr/WordBytes) % len(m.words)
}

func maskWord(old, data uint32, mask uint8) uint32 {
	var word uint32
	for lane := 0; lane < WordBytes; lane++ {
		shift := uint(lane) * 8
		if mask&(1<<uint(lane)) != 0 {
			word |= data & (0xFF << shift)
		} else {
			word |= old & (0xFF << shift)
		}
	}
	return word
}
