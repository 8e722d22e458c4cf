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
	deviceifc "jinr.ru/greenlab/go-fir/pkg/device/ifc"
	"jinr.ru/greenlab/go-fir/pkg/layers"
)

type ControlServer interface {
	Run() error

	GetDeviceByName(coreName string) (deviceifc.Device, error)
	GetAllDevices() map[string]deviceifc.Device
}

type ApiServer interface {
	Run() error
}

// State is the persisted mirror of register values, one bucket per core.
type State interface {
	SetReg(reg *layers.Reg, coreName string) error
	GetReg(addr uint32, coreName string) (*layers.Reg, error)
	GetRegAll(coreName string) ([]*layers.Reg, error)
	Close()
}
