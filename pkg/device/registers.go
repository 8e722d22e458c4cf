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

package device

import (
	"jinr.ru/greenlab/go-fir/pkg/core"
)

type RegAlias int

const (
	RegAPCtrl RegAlias = iota
	RegDataLength
	RegAliasLimit
)

var RegMap = map[RegAlias]uint32{
	RegAPCtrl:     core.AddrAPCtrl,
	RegDataLength: core.AddrDataLength,
}

// CoefAddr returns the register address of coefficient tap i.
func CoefAddr(i int) uint32 {
	return core.CoefWindowBit | uint32(i*core.WordBytes)
}
