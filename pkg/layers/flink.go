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

// Package layers implements the go-fir host protocol as gopacket layers.
// Every UDP datagram carries one FLink frame: a fixed header, a typed
// payload (register operations or a stream frame burst) and a crc32 tail.
package layers

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	FLinkHostAddr = 1
	FLinkCoreAddr = 0xf1f1
)

const (
	// FLinkLayerNum identifies the layer
	FLinkLayerNum = 2001
	// FLinkSync is a magic number that appears in the beginning of each FLink frame
	FLinkSync = 0x2A46
	// FLinkHeaderSize is the size of the FLink header in bytes
	FLinkHeaderSize = 12
	// FLinkTailSize is the size of the crc32 tail in bytes
	FLinkTailSize = 4
	// FLinkMaxFrameSize is the max size of an FLink frame including header and tail
	FLinkMaxFrameSize = 1400
	// FLinkMaxPayloadSize is the max size of an FLink frame payload
	FLinkMaxPayloadSize = FLinkMaxFrameSize - FLinkHeaderSize - FLinkTailSize
)

type FLinkType uint16

const (
	FLinkTypeRegRequest  FLinkType = 0x0301
	FLinkTypeRegResponse FLinkType = 0x0302
	FLinkTypeFrame       FLinkType = 0x0346
)

// Decode hands the payload to the decoder for the frame type.
func (t FLinkType) Decode(data []byte, p gopacket.PacketBuilder) error {
	switch t {
	case FLinkTypeRegRequest, FLinkTypeRegResponse:
		return DecodeRegLayer(data, p)
	case FLinkTypeFrame:
		return DecodeFrameLayer(data, p)
	}
	return ErrUnknownFrameType{Type: uint16(t)}
}

func (t FLinkType) String() string {
	switch t {
	case FLinkTypeRegRequest:
		return "RegRequest"
	case FLinkTypeRegResponse:
		return "RegResponse"
	case FLinkTypeFrame:
		return "Frame"
	}
	return "Unknown"
}

type FLinkHeader struct {
	Type FLinkType
	Sync uint16
	Seq  uint16
	// Len is the length of the FLink frame including header, payload and
	// crc tail, in 4-byte words NOT in bytes
	Len uint16
	Src uint16
	Dst uint16
}

type FLinkLayer struct {
	layers.BaseLayer
	FLinkHeader
	Crc uint32
}

var FLinkLayerType = gopacket.RegisterLayerType(FLinkLayerNum,
	gopacket.LayerTypeMetadata{Name: "FLinkLayerType", Decoder: gopacket.DecodeFunc(DecodeFLinkLayer)})

func (f *FLinkLayer) LayerType() gopacket.LayerType {
	return FLinkLayerType
}

// SerializeHeader serializes only the FLink header (not the tail) to a
// buffer. The crc tail depends on the whole frame contents and is appended
// by Wrap once the payload is known.
func (f *FLinkLayer) SerializeHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(f.Type))
	binary.LittleEndian.PutUint16(buf[2:4], f.Sync)
	binary.LittleEndian.PutUint16(buf[4:6], f.Seq)
	binary.LittleEndian.PutUint16(buf[6:8], f.Len)
	binary.LittleEndian.PutUint16(buf[8:10], f.Src)
	binary.LittleEndian.PutUint16(buf[10:12], f.Dst)
}

// Wrap frames a serialized payload: header, payload, crc32 tail. The
// payload length must be a multiple of 4 bytes.
func Wrap(frameType FLinkType, seq uint16, payload []byte) []byte {
	f := &FLinkLayer{}
	f.Type = frameType
	f.Sync = FLinkSync
	f.Seq = seq
	f.Len = uint16((FLinkHeaderSize + len(payload) + FLinkTailSize) / 4)
	f.Src = FLinkHostAddr
	f.Dst = FLinkCoreAddr

	buf := make([]byte, FLinkHeaderSize+len(payload)+FLinkTailSize)
	f.SerializeHeader(buf[0:FLinkHeaderSize])
	copy(buf[FLinkHeaderSize:], payload)
	crc := crc32.ChecksumIEEE(buf[0 : FLinkHeaderSize+len(payload)])
	binary.LittleEndian.PutUint32(buf[FLinkHeaderSize+len(payload):], crc)
	return buf
}

func (f *FLinkLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FLinkHeaderSize+FLinkTailSize {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data)}
	}
	f.Type = FLinkType(binary.LittleEndian.Uint16(data[0:2]))
	f.Sync = binary.LittleEndian.Uint16(data[2:4])
	if f.Sync != FLinkSync {
		return ErrBadSync{Sync: f.Sync}
	}
	f.Seq = binary.LittleEndian.Uint16(data[4:6])
	f.Len = binary.LittleEndian.Uint16(data[6:8])
	f.Src = binary.LittleEndian.Uint16(data[8:10])
	f.Dst = binary.LittleEndian.Uint16(data[10:12])
	f.Crc = binary.LittleEndian.Uint32(data[len(data)-FLinkTailSize:])
	if crc := crc32.ChecksumIEEE(data[:len(data)-FLinkTailSize]); crc != f.Crc {
		return ErrBadCrc{Want: f.Crc, Got: crc}
	}
	f.BaseLayer = layers.BaseLayer{
		Contents: data[0:FLinkHeaderSize],
		Payload:  data[FLinkHeaderSize : len(data)-FLinkTailSize],
	}
	return nil
}

func DecodeFLinkLayer(data []byte, p gopacket.PacketBuilder) error {
	f := &FLinkLayer{}
	err := f.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(f)
	return p.NextDecoder(f.Type)
}
