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
	"encoding/binary"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/layers"
	"jinr.ru/greenlab/go-fir/pkg/log"
	"jinr.ru/greenlab/go-fir/pkg/srv/control/ifc"
)

const (
	BucketNamePrefix = "reg_"
)

// RegState keeps the last seen value of every register, one bucket per
// core, so that the host can inspect register history without touching the
// cores.
type RegState struct {
	context.Context
	DB *bbolt.DB
}

var _ ifc.State = &RegState{}

func NewRegState(ctx context.Context, cfg *config.Config) (*RegState, error) {
	// open register database
	db, err := bbolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	// create buckets in the register database for all cores
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, core := range cfg.Cores {
			_, err = tx.CreateBucketIfNotExists([]byte(bucketName(core.Name)))
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &RegState{
		Context: ctx,
		DB:      db,
	}, nil
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func bucketName(coreName string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, coreName)
}

// Close ...
func (s *RegState) Close() {
	s.DB.Close()
}

// SetReg ...
func (s *RegState) SetReg(reg *layers.Reg, coreName string) error {
	log.Debug("Setting register: Addr: %x Value: %x", reg.Addr, reg.Value)
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(coreName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(coreName)))
		}
		if err := b.Put(uint32ToByte(reg.Addr), uint32ToByte(reg.Value)); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	return nil
}

// GetReg ...
func (s *RegState) GetReg(addr uint32, coreName string) (*layers.Reg, error) {
	log.Debug("Getting register: Addr: %x", addr)
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(coreName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(coreName)))
		}
		valueBytes := b.Get(uint32ToByte(addr))
		if valueBytes == nil {
			return errors.New(fmt.Sprintf("Key not found: %d", addr))
		}
		value = binary.BigEndian.Uint32(valueBytes)
		return nil
	}); err != nil {
		return nil, err
	}
	return &layers.Reg{
		Addr:  addr,
		Value: value,
	}, nil
}

// GetRegAll ...
func (s *RegState) GetRegAll(coreName string) ([]*layers.Reg, error) {
	log.Debug("Getting all registers")
	var regs []*layers.Reg
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(coreName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(coreName)))
		}
		return b.ForEach(func(k, v []byte) error {
			regs = append(regs, &layers.Reg{
				Addr:  binary.BigEndian.Uint32(k),
				Value: binary.BigEndian.Uint32(v),
			})
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return regs, nil
}
