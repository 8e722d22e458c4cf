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

type ApiClient interface {
	RegRead(core, addr string) (string, error)
	RegReadAll(core string) (map[string]string, error)
	RegWrite(core, addr, value string) error

	SetCoefficients(core string, coef []uint32) error
	Coefficients(core string) ([]uint32, error)

	Start(core string) error
	Status(core string) (string, bool, error)
	Reset(core string) error

	Filter(core string, samples []uint32) ([]uint32, error)

	StreamPersist(dir, filePrefix string) error
	StreamFlush() error
}
