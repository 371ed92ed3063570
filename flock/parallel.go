package flock

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum index count to use parallel dispatch.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workChunk represents a range of indices for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool runs data-parallel kernels over index ranges using persistent
// worker goroutines. run does not return until every chunk has completed,
// which is the barrier between dependent stages of a frame.
type workerPool struct {
	numWorkers int
	kernel     func(i0, i1 int)

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool() *workerPool {
	return &workerPool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.kernel(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run applies kernel to [0, n) split into per-worker chunks and waits for
// completion. The kernel must only write state owned by its own indices.
// Setting p.kernel is safe here: workers are idle between dispatches, and
// the channel send orders the write before any worker reads it.
func (p *workerPool) run(n int, kernel func(i0, i1 int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold {
		kernel(0, n)
		return
	}
	if !p.running {
		p.start()
	}

	p.kernel = kernel
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
