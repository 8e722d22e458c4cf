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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-fir/pkg/command/ifc"
	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/srv/control"
	"jinr.ru/greenlab/go-fir/pkg/srv/stream"
)

type ApiClient struct {
	*config.Config
	ApiPrefix       string
	StreamApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) ifc.ApiClient {
	return &ApiClient{
		Config:          cfg,
		ApiPrefix:       fmt.Sprintf("http://%s:%d/api", cfg.IP, control.ApiPort),
		StreamApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.IP, stream.ApiPort),
	}
}

func (c *ApiClient) regReadUrl(core, addr string) string {
	return fmt.Sprintf("%s/reg/r/%s/%s", c.ApiPrefix, core, addr)
}

func (c *ApiClient) regWriteUrl(core string) string {
	return fmt.Sprintf("%s/reg/w/%s", c.ApiPrefix, core)
}

// RegRead sends request to get the value of a core register
func (c *ApiClient) RegRead(core, addr string) (string, error) {
	r, err := req.Get(c.regReadUrl(core, addr))
	if err != nil {
		return "", err
	}
	if r.Response().StatusCode != 200 {
		return "", errors.New(r.Response().Status)
	}
	reg := &control.RegHex{}
	err = r.ToJSON(reg)
	if err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegReadAll sends request to get values of all registers of a core
func (c *ApiClient) RegReadAll(core string) (map[string]string, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, core))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	var regs []*control.RegHex
	result := make(map[string]string)
	err = r.ToJSON(&regs)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		result[reg.Addr] = reg.Value
	}
	return result, nil
}

// RegWrite sends request to write the value to a core register
func (c *ApiClient) RegWrite(core, addr, value string) error {
	reg := &control.RegHex{
		Addr:  addr,
		Value: value,
	}
	r, err := req.Post(c.regWriteUrl(core), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// SetCoefficients sends request to load the coefficient store of a core
func (c *ApiClient) SetCoefficients(core string, coef []uint32) error {
	setup := &control.CoefSetup{
		Coef: coef,
	}
	r, err := req.Post(fmt.Sprintf("%s/fir/%s", c.ApiPrefix, core), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Coefficients sends request to read back the coefficient store of a core
func (c *ApiClient) Coefficients(core string) ([]uint32, error) {
	r, err := req.Get(fmt.Sprintf("%s/fir/%s", c.ApiPrefix, core))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	setup := &control.CoefSetup{}
	err = r.ToJSON(setup)
	if err != nil {
		return nil, err
	}
	return setup.Coef, nil
}

// Start sends request to pulse the start bit of a core
func (c *ApiClient) Start(core string) error {
	r, err := req.Get(fmt.Sprintf("%s/start/%s", c.ApiPrefix, core))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Status sends request to read the control register of a core
func (c *ApiClient) Status(core string) (string, bool, error) {
	r, err := req.Get(fmt.Sprintf("%s/status/%s", c.ApiPrefix, core))
	if err != nil {
		return "", false, err
	}
	if r.Response().StatusCode != 200 {
		return "", false, errors.New(r.Response().Status)
	}
	status := &control.StatusResp{}
	err = r.ToJSON(status)
	if err != nil {
		return "", false, err
	}
	return status.Status, status.Running, nil
}

// Reset sends request to reset a core
func (c *ApiClient) Reset(core string) error {
	r, err := req.Get(fmt.Sprintf("%s/reset/%s", c.ApiPrefix, core))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Filter sends a burst of samples through a core and returns the outputs
func (c *ApiClient) Filter(core string, samples []uint32) ([]uint32, error) {
	job := &control.FilterJob{
		Samples: samples,
	}
	r, err := req.Post(fmt.Sprintf("%s/filter/%s", c.ApiPrefix, core), req.BodyJSON(job))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	result := &control.FilterResult{}
	err = r.ToJSON(result)
	if err != nil {
		return nil, err
	}
	return result.Outputs, nil
}

// StreamPersist ...
func (c *ApiClient) StreamPersist(dirPath, filePrefix string) error {
	persist := &stream.Persist{
		Dir:        dirPath,
		FilePrefix: filePrefix,
	}
	r, err := req.Post(fmt.Sprintf("%s/persist", c.StreamApiPrefix), req.BodyJSON(persist))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// StreamFlush ...
func (c *ApiClient) StreamFlush() error {
	r, err := req.Get(fmt.Sprintf("%s/flush", c.StreamApiPrefix))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}
