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
	"bytes"
	"sync"
	"testing"

	"jinr.ru/greenlab/go-fir/pkg/layers"
)

func TestBurstBuilder(t *testing.T) {
	b := NewBurstBuilder("fir0")

	if _, complete := b.Add(&layers.FrameLayer{Words: []uint32{1, 2}}); complete {
		t.Fatal("burst completed without last flag")
	}
	if _, complete := b.Add(&layers.FrameLayer{Words: []uint32{3}}); complete {
		t.Fatal("burst completed without last flag")
	}
	words, complete := b.Add(&layers.FrameLayer{Words: []uint32{4}, Flags: layers.FrameFlagLast})
	if !complete {
		t.Fatal("burst not completed by last flag")
	}
	want := []uint32{1, 2, 3, 4}
	if len(words) != len(want) {
		t.Fatalf("words: got %v, want %v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d: got %d, want %d", i, words[i], want[i])
		}
	}

	// the builder resets after a completed burst
	words, complete = b.Add(&layers.FrameLayer{Words: []uint32{9}, Flags: layers.FrameFlagLast})
	if !complete || len(words) != 1 || words[0] != 9 {
		t.Fatalf("second burst: got %v complete=%t", words, complete)
	}
}

func TestNextSeqConcurrent(t *testing.T) {
	s := &StreamServer{}

	const workers = 8
	const perWorker = 100
	seqs := make(chan uint16, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seqs <- s.NextSeq()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[uint16]bool)
	for seq := range seqs {
		if seen[seq] {
			t.Fatalf("sequence number %d handed out twice", seq)
		}
		seen[seq] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("got %d sequence numbers, want %d", len(seen), workers*perWorker)
	}
}

func TestWordBytes(t *testing.T) {
	got := wordBytes([]uint32{0x04030201, 0x08070605})
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
