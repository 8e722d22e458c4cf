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

package ifc

import (
	"jinr.ru/greenlab/go-fir/pkg/layers"
)

type Device interface {
	GetName() string
	Taps() int

	RegRead(addr uint32) (*layers.Reg, error)
	RegReadAll() ([]*layers.Reg, error)
	RegWrite(reg *layers.Reg) error

	SetCoefficients(coef []uint32) error
	Coefficients() ([]uint32, error)

	Start() error
	Status() (uint32, error)
	IsRunning() (bool, error)

	Filter(samples []uint32) ([]uint32, error)

	Reset() error
}
