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

// Frame is the unit exchanged on the ingress and egress streams: one data
// word plus the end-of-burst marker.
type Frame struct {
	Data uint32
	Last bool
}

// Inputs is everything the environment drives onto the core's ports for one
// cycle. A word is transferred on a channel when its valid and ready are
// asserted in the same cycle.
type Inputs struct {
	Reset bool

	// register write channel; a write takes effect only when the address
	// and the data are valid in the same cycle
	AWValid bool
	AWAddr  uint32
	WValid  bool
	WData   uint32

	// register read channel
	ARValid bool
	ARAddr  uint32
	RReady  bool

	// ingress stream
	InValid bool
	In      Frame

	// egress stream
	OutReady bool
}

// Outputs is everything the core drives back during the same cycle.
type Outputs struct {
	AWReady bool
	WReady  bool

	ARReady bool
	RValid  bool
	RData   uint32

	InReady bool

	OutValid bool
	Out      Frame
}
