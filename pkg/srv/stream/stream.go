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

package stream

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"path"
	"sync"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-fir/pkg/config"
	deviceifc "jinr.ru/greenlab/go-fir/pkg/device/ifc"
	"jinr.ru/greenlab/go-fir/pkg/layers"
	"jinr.ru/greenlab/go-fir/pkg/log"
	"jinr.ru/greenlab/go-fir/pkg/srv"
	"jinr.ru/greenlab/go-fir/pkg/srv/control/ifc"
)

const (
	StreamPort   = 33401
	WriterChSize = 100
	InChSize     = 100
)

// StreamServer accepts sample bursts over the FLink frame protocol, runs
// them through the core and sends the filtered burst back to the sender.
// Core i listens on StreamPort+i, next to its register endpoint.
type StreamServer struct {
	srv.Server
	seq            uint16
	seqMu          sync.Mutex
	api            *ApiServer
	ctrl           ifc.ControlServer
	packetSources  map[string]*PacketSource
	writers        map[string]io.Writer
	writerChs      map[string]chan []byte
	writerStateChs map[string]chan string
}

func NewStreamServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (*StreamServer, error) {
	log.Info("Initializing stream server with address: %s port: %d", cfg.IP, StreamPort)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.IP, StreamPort))
	if err != nil {
		return nil, err
	}

	s := &StreamServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChOut:   make(chan srv.OutPacket),
		},
		ctrl:           ctrl,
		packetSources:  make(map[string]*PacketSource),
		writers:        make(map[string]io.Writer),
		writerChs:      make(map[string]chan []byte),
		writerStateChs: make(map[string]chan string),
	}

	for _, core := range cfg.Cores {
		s.packetSources[core.Name] = NewPacketSource()
		s.writers[core.Name] = io.Discard
		s.writerChs[core.Name] = make(chan []byte, WriterChSize)
		s.writerStateChs[core.Name] = make(chan string)
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

// NextSeq hands out frame sequence numbers. Burst builders for different
// cores send concurrently.
func (s *StreamServer) NextSeq() uint16 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	seq := s.seq
	s.seq++
	return seq
}

func (s *StreamServer) Run() error {
	errChan := make(chan error, 1)

	// flush all files before exit
	defer s.Flush()

	conns := make(map[string]*net.UDPConn)

	// Read packets from wire and put them to per core input queues
	for i, core := range s.Config.Cores {
		uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.Config.IP, StreamPort+i))
		if err != nil {
			return err
		}
		conn, err := net.ListenUDP("udp", uaddr)
		if err != nil {
			return err
		}
		defer conn.Close()
		conns[core.Name] = conn

		go func(conn *net.UDPConn, coreName string) {
			buffer := make([]byte, 1048576)
			for {
				length, addr, readErr := conn.ReadFromUDP(buffer)
				if readErr != nil {
					errChan <- readErr
					return
				}
				log.Debug("Received packet from %s", addr)
				captureInfo := srv.NewCaptureInfo(length, addr)
				captureInfo.AncillaryData = append(captureInfo.AncillaryData, coreName)
				packet := srv.InPacket{CaptureInfo: captureInfo, Data: make([]byte, length)}
				copy(packet.Data, buffer[:length])
				s.packetSources[coreName].ChIn <- packet
			}
		}(conn, core.Name)
	}

	// Read packets from output queue and send them to wire
	go func() {
		for {
			outPacket := <-s.ChOut
			log.Debug("Sending packet to %s data: \n%s", outPacket.UDPAddr, hex.EncodeToString(outPacket.Data))
			conn, ok := conns[outPacket.CoreName]
			if !ok {
				log.Error("No endpoint for core: %s", outPacket.CoreName)
				continue
			}
			_, sendErr := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr)
			if sendErr != nil {
				log.Error("Error while sending data to %s", outPacket.UDPAddr)
				errChan <- sendErr
				return
			}
		}
	}()

	// Run writers and burst builders
	for _, core := range s.Config.Cores {
		coreName := core.Name

		go func() {
			currentFilename := ""
			for {
				select {
				case filename := <-s.writerStateChs[coreName]:
					if currentFilename != "" {
						w := s.writers[coreName].(*Writer)
						w.Flush()
					}
					if filename == "" {
						s.writers[coreName] = io.Discard
					} else {
						w, newWriterErr := NewWriter(filename)
						if newWriterErr != nil {
							log.Error("Error while creating writer: %s", newWriterErr)
							continue
						}
						s.writers[coreName] = w
					}
					currentFilename = filename
				default:
				}
				select {
				case bytes := <-s.writerChs[coreName]:
					_, writeErr := s.writers[coreName].Write(bytes)
					if writeErr != nil {
						log.Error("Error while writing to file: %s", writeErr)
					}
				default:
					time.Sleep(10 * time.Millisecond)
				}
			}
		}()

		go func() {
			builder := NewBurstBuilder(coreName)
			source := gopacket.NewPacketSource(s.packetSources[coreName], layers.FLinkLayerType)
			for packet := range source.Packets() {
				frameLayer := packet.Layer(layers.FrameLayerType)
				if frameLayer == nil {
					log.Debug("Dropping non frame packet: core: %s", coreName)
					continue
				}
				udpaddr, getAddrErr := srv.GetAddrPort(packet)
				if getAddrErr != nil {
					log.Error("Error while getting udpaddr for a packet from input queue")
					continue
				}
				frame := frameLayer.(*layers.FrameLayer)
				samples, complete := builder.Add(frame)
				if !complete {
					continue
				}
				if err := s.handleBurst(coreName, samples, udpaddr); err != nil {
					log.Error("Error while handling burst: core: %s: %s", coreName, err)
				}
			}
		}()
	}

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

// handleBurst runs a completed sample burst through the core, persists the
// filtered words and sends them back to the peer.
func (s *StreamServer) handleBurst(coreName string, samples []uint32, udpAddr *net.UDPAddr) error {
	device, err := s.ctrl.GetDeviceByName(coreName)
	if err != nil {
		return err
	}

	log.Debug("Handling burst: core: %s samples: %d", coreName, len(samples))

	outputs, err := device.Filter(samples)
	if err != nil {
		return err
	}

	s.writerChs[coreName] <- wordBytes(outputs)

	return s.sendBurst(device, outputs, udpAddr)
}

// sendBurst splits the output words into frames and puts them to the output
// queue. The final frame carries the last flag.
func (s *StreamServer) sendBurst(device deviceifc.Device, outputs []uint32, udpAddr *net.UDPAddr) error {
	for offset := 0; ; offset += layers.FrameMaxWords {
		end := offset + layers.FrameMaxWords
		last := end >= len(outputs)
		if last {
			end = len(outputs)
		}
		frame := &layers.FrameLayer{
			Count: uint16(end - offset),
			Words: outputs[offset:end],
		}
		if last {
			frame.Flags |= layers.FrameFlagLast
		}

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{}
		if err := frame.SerializeTo(buf, opts); err != nil {
			return err
		}

		s.ChOut <- srv.OutPacket{
			Data:     layers.Wrap(layers.FLinkTypeFrame, s.NextSeq(), buf.Bytes()),
			UDPAddr:  udpAddr,
			CoreName: device.GetName(),
		}

		if last {
			return nil
		}
	}
}

func wordBytes(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, word := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], word)
	}
	return buf
}

func (s *StreamServer) persistFilename(dir, prefix, name, suffix string) string {
	filename := fmt.Sprintf("%s_%s.data", name, suffix)
	if prefix != "" {
		filename = fmt.Sprintf("%s_%s", prefix, filename)
	}
	return path.Join(dir, filename)
}

func (s *StreamServer) Flush() {
	for _, core := range s.Config.Cores {
		log.Info("Flush writer: %s", core.Name)
		s.writerStateChs[core.Name] <- ""
	}
}

func (s *StreamServer) Persist(dir, filePrefix string) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	for _, core := range s.Config.Cores {
		log.Info("Persist writer: %s", core.Name)
		filename := s.persistFilename(dir, filePrefix, core.Name, timestamp)
		s.writerStateChs[core.Name] <- filename
	}
}

// BurstBuilder accumulates frame words until a frame with the last flag
// closes the burst.
type BurstBuilder struct {
	coreName string
	words    []uint32
}

func NewBurstBuilder(coreName string) *BurstBuilder {
	return &BurstBuilder{coreName: coreName}
}

// Add appends the frame words to the pending burst. When the frame carries
// the last flag it returns the completed burst and resets the builder.
func (b *BurstBuilder) Add(frame *layers.FrameLayer) ([]uint32, bool) {
	b.words = append(b.words, frame.Words...)
	if !frame.Last() {
		return nil, false
	}
	words := b.words
	b.words = nil
	return words, true
}

type PacketSource struct {
	ChIn chan srv.InPacket
}

func NewPacketSource() *PacketSource {
	return &PacketSource{
		ChIn: make(chan srv.InPacket, InChSize),
	}
}

func (ps *PacketSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	p := <-ps.ChIn
	return p.Data, p.CaptureInfo, nil
}
