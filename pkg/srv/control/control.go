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

package control

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/device"
	deviceifc "jinr.ru/greenlab/go-fir/pkg/device/ifc"
	"jinr.ru/greenlab/go-fir/pkg/layers"
	"jinr.ru/greenlab/go-fir/pkg/log"
	"jinr.ru/greenlab/go-fir/pkg/srv"
	"jinr.ru/greenlab/go-fir/pkg/srv/control/ifc"
)

// ControlServer exposes the register interface of every configured core
// over the FLink UDP protocol. Core i listens on RegPort+i, the way each
// physical board would own its own endpoint.
type ControlServer struct {
	srv.Server
	seq     uint16
	seqMu   sync.Mutex
	state   *RegState
	devices map[string]deviceifc.Device
	conns   map[string]*net.UDPConn
	api     ifc.ApiServer
}

var _ ifc.ControlServer = &ControlServer{}

// NewControlServer ...
func NewControlServer(ctx context.Context, cfg *config.Config) (ifc.ControlServer, error) {
	log.Debug("Initializing control server with address: %s port: %d", cfg.IP, RegPort)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.IP, RegPort))
	if err != nil {
		return nil, err
	}

	regState, err := NewRegState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &ControlServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan srv.InPacket),
			ChOut:   make(chan srv.OutPacket),
		},
		state:   regState,
		devices: make(map[string]deviceifc.Device),
		conns:   make(map[string]*net.UDPConn),
	}

	for _, core := range cfg.Cores {
		d, err := device.NewDevice(core, regState)
		if err != nil {
			return nil, err
		}
		s.devices[core.Name] = d
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *ControlServer) GetDeviceByName(coreName string) (deviceifc.Device, error) {
	d, ok := s.devices[coreName]
	if !ok {
		return nil, config.ErrCoreNotFound{Name: coreName}
	}
	return d, nil
}

func (s *ControlServer) GetAllDevices() map[string]deviceifc.Device {
	return s.devices
}

func (s *ControlServer) NextSeq() uint16 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	seq := s.seq
	s.seq++
	return seq
}

func (s *ControlServer) Run() error {
	errChan := make(chan error, 1)

	// one endpoint per core; read datagrams from wire and put them to
	// the input queue tagged with the core name
	for i, core := range s.Config.Cores {
		uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.Config.IP, RegPort+i))
		if err != nil {
			return err
		}
		conn, err := net.ListenUDP("udp", uaddr)
		if err != nil {
			return err
		}
		defer conn.Close()
		s.conns[core.Name] = conn

		go func(conn *net.UDPConn, coreName string) {
			buffer := make([]byte, 65536)
			for {
				length, addr, readErr := conn.ReadFromUDP(buffer)
				if readErr != nil {
					errChan <- readErr
					return
				}
				data := make([]byte, length)
				copy(data, buffer[:length])
				captureInfo := srv.NewCaptureInfo(length, addr)
				captureInfo.AncillaryData = append(captureInfo.AncillaryData, coreName)
				s.ChIn <- srv.InPacket{Data: data, CaptureInfo: captureInfo}
			}
		}(conn, core.Name)
	}

	defer s.state.Close()

	// read captured packets from the input queue, parse them, apply the
	// register operations and send the responses back
	go func() {
		source := gopacket.NewPacketSource(&s.Server, layers.FLinkLayerType)
		for packet := range source.Packets() {
			coreName, packetErr := GetCoreName(packet)
			if packetErr != nil {
				log.Error(packetErr.Error())
				continue
			}
			peer, packetErr := srv.GetAddrPort(packet)
			if packetErr != nil {
				log.Error(packetErr.Error())
				continue
			}
			regLayer := packet.Layer(layers.RegLayerType)
			if regLayer == nil {
				log.Debug("Dropping non register packet: core: %s", coreName)
				continue
			}
			ops := regLayer.(*layers.RegLayer).RegOps
			resp, err := s.applyRegOps(coreName, ops)
			if err != nil {
				log.Error("Error while applying register ops: core: %s: %s", coreName, err)
				continue
			}
			if err := s.sendRegOps(coreName, peer, resp); err != nil {
				log.Error("Error while sending register response: core: %s: %s", coreName, err)
			}
		}
	}()

	go func() {
		if err := s.api.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

// applyRegOps drives the operations through the core's register interface
// in order, collecting one response op per request op.
func (s *ControlServer) applyRegOps(coreName string, ops []*layers.RegOp) ([]*layers.RegOp, error) {
	d, err := s.GetDeviceByName(coreName)
	if err != nil {
		return nil, err
	}
	var resp []*layers.RegOp
	for _, op := range ops {
		if op.Read {
			reg, err := d.RegRead(op.Addr)
			if err != nil {
				return nil, err
			}
			resp = append(resp, &layers.RegOp{Read: true, Reg: reg})
		} else {
			if err := d.RegWrite(op.Reg); err != nil {
				return nil, err
			}
			resp = append(resp, op)
		}
	}
	return resp, nil
}

func (s *ControlServer) sendRegOps(coreName string, peer *net.UDPAddr, ops []*layers.RegOp) error {
	conn, ok := s.conns[coreName]
	if !ok {
		return config.ErrCoreNotFound{Name: coreName}
	}
	reg := &layers.RegLayer{RegOps: ops}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := reg.SerializeTo(buf, opts); err != nil {
		return err
	}
	data := layers.Wrap(layers.FLinkTypeRegResponse, s.NextSeq(), buf.Bytes())
	_, err := conn.WriteToUDP(data, peer)
	return err
}

// GetCoreName returns the name of the core whose endpoint received the packet
func GetCoreName(packet gopacket.Packet) (string, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 2 {
		ancillary := meta.CaptureInfo.AncillaryData[1]
		coreName, ok := ancillary.(string)
		if !ok {
			return "", srv.ErrGetAddr{}
		}
		return coreName, nil
	}
	return "", srv.ErrGetAddr{}
}
