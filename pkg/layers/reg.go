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

package layers

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RegLayerNum identifies the layer
	RegLayerNum = 2002
	// RegOpSize is the serialized size of one register operation in bytes
	RegOpSize = 8
	// RegOpReadFlag marks a register operation as a read
	RegOpReadFlag = 0x80000000
)

// Reg is one register address/value pair.
type Reg struct {
	Addr  uint32
	Value uint32
}

// Hex returns the address and the value as hexadecimal strings.
func (r *Reg) Hex() (string, string) {
	return fmt.Sprintf("0x%02x", r.Addr), fmt.Sprintf("0x%08x", r.Value)
}

func NewRegFromHex(hexAddr, hexValue string) (*Reg, error) {
	addr, err := strconv.ParseUint(hexAddr, 0, 32)
	if err != nil {
		return nil, err
	}
	value, err := strconv.ParseUint(hexValue, 0, 32)
	if err != nil {
		return nil, err
	}
	return &Reg{
		Addr:  uint32(addr),
		Value: uint32(value),
	}, nil
}

// RegOp is one read or write request/response. For a read request Value is
// ignored; in a response it carries the value read.
type RegOp struct {
	Read bool
	*Reg
}

type RegLayer struct {
	layers.BaseLayer
	RegOps []*RegOp
}

var RegLayerType = gopacket.RegisterLayerType(RegLayerNum,
	gopacket.LayerTypeMetadata{Name: "RegLayerType", Decoder: gopacket.DecodeFunc(DecodeRegLayer)})

func (reg *RegLayer) LayerType() gopacket.LayerType {
	return RegLayerType
}

// Serialize serializes the register operations to a buffer. Each operation
// takes two 32-bit words: the address with the read flag in bit 31, then
// the value.
func (reg *RegLayer) Serialize(buf []byte) {
	for i, op := range reg.RegOps {
		word := op.Addr &^ RegOpReadFlag
		if op.Read {
			word |= RegOpReadFlag
		}
		binary.LittleEndian.PutUint32(buf[i*RegOpSize:], word)
		binary.LittleEndian.PutUint32(buf[i*RegOpSize+4:], op.Value)
	}
}

// SerializeTo serializes the register operations into bytes and writes the
// bytes to the SerializeBuffer
func (reg *RegLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(reg.RegOps) * RegOpSize)
	if err != nil {
		return err
	}
	reg.Serialize(bytes)
	return nil
}

func (reg *RegLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data)%RegOpSize != 0 {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data)}
	}
	reg.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	reg.RegOps = nil
	for i := 0; i < len(data); i += RegOpSize {
		word := binary.LittleEndian.Uint32(data[i : i+4])
		op := &RegOp{
			Read: word&RegOpReadFlag != 0,
			Reg: &Reg{
				Addr:  word &^ RegOpReadFlag,
				Value: binary.LittleEndian.Uint32(data[i+4 : i+8]),
			},
		}
		reg.RegOps = append(reg.RegOps, op)
	}
	return nil
}

func DecodeRegLayer(data []byte, p gopacket.PacketBuilder) error {
	reg := &RegLayer{}
	err := reg.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(reg)
	return nil
}
