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

// go-fir API
//
// # RESTful APIs to interact with go-fir server
//
// Terms Of Service:
//
// Schemes: http
// Host: localhost:8003
// Version: 1.0.0
// Contact:
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/layers"
	"jinr.ru/greenlab/go-fir/pkg/log"
	"jinr.ru/greenlab/go-fir/pkg/srv/control/ifc"
)

// RegHex ...
type RegHex struct {
	Addr  string // hexadecimal
	Value string // hexadecimal
}

type CoefSetup struct {
	Coef []uint32 `json:"coef"`
}

type StatusResp struct {
	Status  string `json:"status"` // hexadecimal AP_CTRL value
	Running bool   `json:"running"`
}

type FilterJob struct {
	Samples []uint32 `json:"samples"`
}

type FilterResult struct {
	Outputs []uint32 `json:"outputs"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl ifc.ControlServer
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (ifc.ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.IP, ApiPort)

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
	}
	return s, nil
}

func (s *ApiServer) regReadHex(addr uint32, core string) (*RegHex, error) {
	d, err := s.ctrl.GetDeviceByName(core)
	if err != nil {
		return nil, err
	}
	reg, err := d.RegRead(addr)
	if err != nil {
		return nil, err
	}
	hexAddr, hexValue := reg.Hex()
	return &RegHex{
		Addr:  hexAddr,
		Value: hexValue,
	}, nil
}

func (s *ApiServer) regReadAllHex(core string) ([]*RegHex, error) {
	d, err := s.ctrl.GetDeviceByName(core)
	if err != nil {
		return nil, err
	}
	regs, err := d.RegReadAll()
	if err != nil {
		return nil, err
	}
	regsHex := []*RegHex{}
	for _, reg := range regs {
		hexAddr, hexValue := reg.Hex()
		regsHex = append(regsHex, &RegHex{Addr: hexAddr, Value: hexValue})
	}
	return regsHex, nil
}

// Start
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.IP, ApiPort)
	s.configureRouter()
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stdout, s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.IP, ApiPort),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/core/addr get register
	// ---
	// summary: read register
	subRouter.HandleFunc("/reg/r/{core}/{addr:0x[0-9abcdef]+}", s.handleRegRead()).Methods("GET")
	// swagger:operation GET /reg/r/core read all registers
	// ---
	// summary: read all registers
	subRouter.HandleFunc("/reg/r/{core}", s.handleRegReadAll()).Methods("GET")
	// swagger:operation POST /reg/w/core write register
	// ---
	// summary: write register
	subRouter.HandleFunc("/reg/w/{core}", s.handleRegWrite()).Methods("POST")
	subRouter.HandleFunc("/fir/{core}", s.handleCoef()).Methods("POST")
	subRouter.HandleFunc("/fir/{core}", s.handleCoefRead()).Methods("GET")
	subRouter.HandleFunc("/start/{core}", s.handleStart()).Methods("GET")
	subRouter.HandleFunc("/status/{core}", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/filter/{core}", s.handleFilter()).Methods("POST")
	subRouter.HandleFunc("/reset/{core}", s.handleReset()).Methods("GET")
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		log.Debug("Handling reg read request: core: %s, addr: %s", vars["core"], vars["addr"])

		addr, err := strconv.ParseUint(vars["addr"], 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		regHex, err := s.regReadHex(uint32(addr), vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(regHex)
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read all request: core: %s", vars["core"])

		regsHex, err := s.regReadAllHex(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(regsHex)
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		regHex := &RegHex{}
		err := json.NewDecoder(r.Body).Decode(regHex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling reg write request: core: %s addr: %s value: %s",
			vars["core"], regHex.Addr, regHex.Value)

		reg, err := layers.NewRegFromHex(regHex.Addr, regHex.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		err = device.RegWrite(reg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *ApiServer) handleCoef() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		setup := &CoefSetup{}

		err := json.NewDecoder(r.Body).Decode(setup)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling coefficient setup request: core: %s count: %d", vars["core"], len(setup.Coef))

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		err = device.SetCoefficients(setup.Coef)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *ApiServer) handleCoefRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling coefficient read request: core: %s", vars["core"])

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		coef, err := device.Coefficients()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(&CoefSetup{Coef: coef})
	}
}

func (s *ApiServer) handleStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling start request: core: %s", vars["core"])

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		err = device.Start()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling status request: core: %s", vars["core"])

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		status, err := device.Status()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		running, err := device.IsRunning()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(&StatusResp{
			Status:  fmt.Sprintf("0x%08x", status),
			Running: running,
		})
	}
}

func (s *ApiServer) handleFilter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		job := &FilterJob{}

		err := json.NewDecoder(r.Body).Decode(job)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling filter request: core: %s samples: %d", vars["core"], len(job.Samples))

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		outputs, err := device.Filter(job.Samples)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(&FilterResult{Outputs: outputs})
	}
}

func (s *ApiServer) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reset request: core: %s", vars["core"])

		device, err := s.ctrl.GetDeviceByName(vars["core"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		err = device.Reset()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}
