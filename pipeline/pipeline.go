// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package pipeline implements the parallel block compressor: a fixed pool
// of worker goroutines that compress submitted blocks out of order,
// recycling scratch buffers and tokenizing the read-name column through
// readname before falling back to the general codec.
package pipeline

import (
	"sync"

	"github.com/gbamio/blockcomp/codec"
	"github.com/gbamio/blockcomp/readname"
)

// Field identifies the logical column a block belongs to. ReadName is the
// only variant with special handling; the rest exist so BlockInfo can
// carry the same contract the upstream writer relies on for every column.
type Field int

const (
	ReadName Field = iota
	Flag
	Sequence
	Quality
	Cigar
	MapQ
	Pos
	RefID
	Other
)

// BlockInfo is the metadata a submitted block carries alongside its
// payload. UncomprSize is authoritative: it may be less than len(data),
// since data is a pooled scratch buffer that can be larger than the
// logical payload it holds.
type BlockInfo struct {
	Field       Field
	UncomprSize int
	Codec       codec.Algorithm
}

// OrderingKey tags a completion with either a real position in the
// output stream or the unused marker used to prime the completion queue.
// A tagged struct is used instead of overloading a reserved key value so
// that no real ordering key is inadvertently indistinguishable from the
// sentinel.
type OrderingKey struct {
	Key      uint64
	IsUnused bool
}

// UnusedOrderingKey is the sentinel used to prime the completion queue at
// construction; completions carrying it must be ignored by callers that
// count real progress.
func UnusedOrderingKey() OrderingKey { return OrderingKey{IsUnused: true} }

// Key wraps a real ordering position.
func Key(k uint64) OrderingKey { return OrderingKey{Key: k} }

// CompressTask is the unit exchanged on the completion queue: a completed
// (or sentinel) compression result.
type CompressTask struct {
	OrderingKey OrderingKey
	BlockInfo   BlockInfo
	Buf         []byte
}

type submission struct {
	orderingKey OrderingKey
	blockInfo   BlockInfo
	data        []byte
}

// completionQueue is an unbounded multi-producer multi-consumer queue
// implemented with a mutex and condition variable, since Go channels are
// inherently bounded and this queue must never apply backpressure to
// workers publishing their results.
type completionQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []CompressTask
}

func newCompletionQueue() *completionQueue {
	q := &completionQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *completionQueue) push(t CompressTask) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *completionQueue) pop() CompressTask {
	q.mu.Lock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	t := q.items[0]
	q.items = q.items[1:]
	q.mu.Unlock()
	return t
}

// Compressor is the parallel block compression pipeline. It owns a fixed
// pool of worker goroutines, a bounded pool of scratch buffers (one per
// worker), and an unbounded completion queue.
type Compressor struct {
	workc chan submission
	bufc  chan []byte
	comp  *completionQueue

	mu       sync.Mutex
	sent     int
	received int

	wg sync.WaitGroup
}

// New constructs a Compressor with threadNum worker goroutines, each
// backed by one sizeLimit-byte scratch buffer. Construction primes the
// buffer pool with thread_num buffers and the completion queue with
// thread_num UnusedBlock sentinels, matching the upstream writer's drain
// logic.
func New(threadNum, sizeLimit int) *Compressor {
	c := &Compressor{
		workc: make(chan submission, 4096),
		bufc:  make(chan []byte, threadNum),
		comp:  newCompletionQueue(),
	}
	for i := 0; i < threadNum; i++ {
		c.bufc <- make([]byte, 0, sizeLimit)
		c.comp.push(CompressTask{OrderingKey: UnusedOrderingKey()})
	}
	c.wg.Add(threadNum)
	for i := 0; i < threadNum; i++ {
		go c.worker()
	}
	return c
}

func (c *Compressor) worker() {
	defer c.wg.Done()
	for sub := range c.workc {
		// The scratch buffer drawn here is discarded once runTask
		// returns a freshly allocated result: none of the wired codec
		// libraries support compressing into a caller-supplied
		// destination uniformly, so the pool's role is reduced to
		// keeping exactly threadNum buffers of sizeLimit capacity in
		// circulation rather than being the literal output
		// destination (see DESIGN.md).
		<-c.bufc
		compressed := runTask(sub)
		c.bufc <- sub.data
		c.comp.push(CompressTask{
			OrderingKey: sub.orderingKey,
			BlockInfo:   sub.blockInfo,
			Buf:         compressed,
		})
	}
}

// CompressBlock submits data for compression under ordering and info.
// Ownership of data transfers to the pipeline; it is returned to the
// internal buffer pool once the task completes and must not be reused by
// the caller.
func (c *Compressor) CompressBlock(ordering OrderingKey, info BlockInfo, data []byte) {
	c.mu.Lock()
	c.sent++
	c.mu.Unlock()
	c.workc <- submission{orderingKey: ordering, blockInfo: info, data: data}
}

// GetComprBlock blocks for one completion, real or sentinel.
func (c *Compressor) GetComprBlock() CompressTask {
	t := c.comp.pop()
	if !t.OrderingKey.IsUnused {
		c.mu.Lock()
		c.received++
		c.mu.Unlock()
	}
	return t
}

// Finish drains every remaining real completion, blocking until
// received == sent.
func (c *Compressor) Finish() []CompressTask {
	var leftovers []CompressTask
	for {
		c.mu.Lock()
		done := c.received == c.sent
		c.mu.Unlock()
		if done {
			return leftovers
		}
		if t := c.GetComprBlock(); !t.OrderingKey.IsUnused {
			leftovers = append(leftovers, t)
		}
	}
}

// runTask performs the per-task execution described for the read-name
// column: NUL-partition, analyzer gate, tokenize, post-tokenization
// codec with a two-stage fallback chain. Every other column goes
// straight to the general codec.
func runTask(sub submission) []byte {
	data := sub.data[:sub.blockInfo.UncomprSize]

	if sub.blockInfo.Field != ReadName {
		return generalCompress(data, sub.blockInfo.Codec)
	}

	names := partitionNUL(data)
	if len(names) == 0 || !readname.ShouldTokenize(names) {
		return generalCompress(data, sub.blockInfo.Codec)
	}

	tok := readname.NewTokenizer()
	records, err := tok.TokenizeBatch(names)
	if err != nil {
		return generalCompress(data, sub.blockInfo.Codec)
	}

	pc := readname.NewPostTokenizationCodec(readname.DefaultPostTokenizationConfig())
	encoded, err := pc.Encode(records, tok.Dictionary())
	if err != nil {
		envelope := readname.EncodeFallbackEnvelope(records, tok.Dictionary())
		return generalCompress(envelope, sub.blockInfo.Codec)
	}
	return encoded
}

func generalCompress(data []byte, algo codec.Algorithm) []byte {
	out, err := codec.Compress(algo, data)
	if err != nil {
		panic(err)
	}
	return out
}

// partitionNUL splits data on NUL bytes into non-empty read-name
// references. A final segment that lacks a trailing NUL terminator is
// still included.
func partitionNUL(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == 0 {
			if i > start {
				out = append(out, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, data[start:])
	}
	return out
}
