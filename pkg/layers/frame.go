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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// FrameLayerNum identifies the layer
	FrameLayerNum = 2003
	// FrameHeaderSize is the serialized size of the frame header in bytes
	FrameHeaderSize = 4
	// FrameFlagLast marks the final word of this frame as the end of the burst
	FrameFlagLast = 0x0001
	// FrameMaxWords is how many words fit into one FLink frame
	FrameMaxWords = (FLinkMaxPayloadSize - FrameHeaderSize) / 4
)

// FrameLayer carries a run of stream words. The burst ends with the final
// word of a frame whose FrameFlagLast flag is set.
type FrameLayer struct {
	layers.BaseLayer
	Count uint16
	Flags uint16
	Words []uint32
}

var FrameLayerType = gopacket.RegisterLayerType(FrameLayerNum,
	gopacket.LayerTypeMetadata{Name: "FrameLayerType", Decoder: gopacket.DecodeFunc(DecodeFrameLayer)})

func (f *FrameLayer) LayerType() gopacket.LayerType {
	return FrameLayerType
}

// Last reports whether the burst ends with this frame.
func (f *FrameLayer) Last() bool {
	return f.Flags&FrameFlagLast != 0
}

func (f *FrameLayer) Serialize(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(f.Words)))
	binary.LittleEndian.PutUint16(buf[2:4], f.Flags)
	for i, word := range f.Words {
		binary.LittleEndian.PutUint32(buf[FrameHeaderSize+i*4:], word)
	}
}

// SerializeTo serializes the frame into bytes and writes the bytes to the
// SerializeBuffer
func (f *FrameLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(FrameHeaderSize + len(f.Words)*4)
	if err != nil {
		return err
	}
	f.Serialize(bytes)
	return nil
}

func (f *FrameLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FrameHeaderSize {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data)}
	}
	f.Count = binary.LittleEndian.Uint16(data[0:2])
	f.Flags = binary.LittleEndian.Uint16(data[2:4])
	if len(data) < FrameHeaderSize+int(f.Count)*4 {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data)}
	}
	f.Words = make([]uint32, f.Count)
	for i := range f.Words {
		f.Words[i] = binary.LittleEndian.Uint32(data[FrameHeaderSize+i*4:])
	}
	f.BaseLayer = layers.BaseLayer{
		Contents: data[0:FrameHeaderSize],
		Payload:  data[FrameHeaderSize : FrameHeaderSize+int(f.Count)*4],
	}
	return nil
}

func DecodeFrameLayer(data []byte, p gopacket.PacketBuilder) error {
	f := &FrameLayer{}
	err := f.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(f)
	return nil
}
