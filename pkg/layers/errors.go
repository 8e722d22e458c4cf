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
	"fmt"
)

// ErrFrameTooShort returned when a datagram is too short for the frame it claims to carry
type ErrFrameTooShort struct {
	Length int
}

func (e ErrFrameTooShort) Error() string {
	return fmt.Sprintf("Frame too short: %d bytes", e.Length)
}

// ErrBadSync returned when the FLink sync magic does not match
type ErrBadSync struct {
	Sync uint16
}

func (e ErrBadSync) Error() string {
	return fmt.Sprintf("Bad FLink sync word: 0x%04x", e.Sync)
}

// ErrBadCrc returned when the FLink crc tail does not match the frame contents
type ErrBadCrc struct {
	Want uint32
	Got  uint32
}

func (e ErrBadCrc) Error() string {
	return fmt.Sprintf("Bad FLink crc: frame carries 0x%08x, computed 0x%08x", e.Want, e.Got)
}

// ErrUnknownFrameType returned when an FLink frame carries an unknown type
type ErrUnknownFrameType struct {
	Type uint16
}

func (e ErrUnknownFrameType) Error() string {
	return fmt.Sprintf("Unknown FLink frame type: 0x%04x", e.Type)
}
