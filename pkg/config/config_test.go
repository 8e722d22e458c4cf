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

package config

import (
	"errors"
	"net"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.filepath = filepath.Join(t.TempDir(), ConfigDir, ConfigFile)
	return cfg
}

func TestPersistLoadRoundtrip(t *testing.T) {
	cfg := testConfig(t)
	ip := net.ParseIP("192.168.1.7")
	cfg.IP = &ip
	cfg.LogLevel = "debug"
	cfg.Cores = []*Core{
		{Name: "fir0", Taps: 11},
		{Name: "fir1", Taps: 5},
	}
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded := NewDefaultConfig()
	loaded.filepath = cfg.filepath
	if err := loaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.IP.String() != "192.168.1.7" {
		t.Fatalf("ip: got %s, want 192.168.1.7", loaded.IP)
	}
	if loaded.LogLevel != "debug" {
		t.Fatalf("loglevel: got %s, want debug", loaded.LogLevel)
	}
	if len(loaded.Cores) != 2 || loaded.Cores[1].Name != "fir1" || loaded.Cores[1].Taps != 5 {
		t.Fatalf("cores: got %+v", loaded.Cores)
	}
}

func TestPersistRefusesOverwrite(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	err := cfg.Persist(false)
	var eerr ErrConfigFileExists
	if !errors.As(err, &eerr) {
		t.Fatalf("got %v, want ErrConfigFileExists", err)
	}
	if err := cfg.Persist(true); err != nil {
		t.Fatalf("overwrite persist: %v", err)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Cores) != 1 || cfg.Cores[0].Name != DefaultCoreName || cfg.Cores[0].Taps != DefaultTaps {
		t.Fatalf("defaults lost: %+v", cfg.Cores)
	}
}

func TestGetCoreByName(t *testing.T) {
	cfg := testConfig(t)
	core, err := cfg.GetCoreByName(DefaultCoreName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if core.Taps != DefaultTaps {
		t.Fatalf("taps: got %d, want %d", core.Taps, DefaultTaps)
	}

	_, err = cfg.GetCoreByName("nope")
	var nerr ErrCoreNotFound
	if !errors.As(err, &nerr) {
		t.Fatalf("got %v, want ErrCoreNotFound", err)
	}
}
