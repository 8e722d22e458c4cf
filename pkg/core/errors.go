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

import (
	"fmt"
)

// ErrStoreGeometry returned when the coefficient and sample stores disagree
// on capacity or are empty
type ErrStoreGeometry struct {
	Coef int
	Samp int
}

func (e ErrStoreGeometry) Error() string {
	return fmt.Sprintf("Bad store geometry: coefficient store %d words, sample store %d words", e.Coef, e.Samp)
}

// ErrWatchdog returned by the driver when the core does not respond within
// the cycle budget
type ErrWatchdog struct {
	Op     string
	Cycles int
}

func (e ErrWatchdog) Error() string {
	return fmt.Sprintf("Watchdog expired after %d cycles during %s", e.Cycles, e.Op)
}
