package regrid

import "sync"

// workUnit is one (elevation, azimuth) cell of a pass.
type workUnit struct {
	p        *pass
	iel, iaz int
}

type worker struct {
	units chan workUnit
}

// workerPool is a fixed set of long-lived compute goroutines. A worker
// returns itself to idle after every unit, so idle holds exactly the
// workers that can accept work.
type workerPool struct {
	workers []*worker
	idle    chan *worker
	wg      sync.WaitGroup
	once    sync.Once
}

func newWorkerPool(n int) *workerPool {
	n = max(n, 1)
	wp := &workerPool{idle: make(chan *worker, n)}
	for range n {
		w := &worker{units: make(chan workUnit, 1)}
		wp.workers = append(wp.workers, w)
		wp.wg.Add(1)
		go wp.run(w)
		wp.idle <- w
	}
	return wp
}

func (wp *workerPool) run(w *worker) {
	defer wp.wg.Done()
	for u := range w.units {
		u.p.interpCell(u.iel, u.iaz)
		wp.idle <- w
	}
}

func (wp *workerPool) size() int {
	return len(wp.workers)
}

// dispatch blocks until a worker is idle and hands it the unit.
func (wp *workerPool) dispatch(u workUnit) {
	w := <-wp.idle
	w.units <- u
}

// drain blocks until every worker has finished its unit. Results written by
// the workers are visible to the caller once drain returns.
func (wp *workerPool) drain() {
	done := make([]*worker, 0, len(wp.workers))
	for range wp.workers {
		done = append(done, <-wp.idle)
	}
	for _, w := range done {
		wp.idle <- w
	}
}

func (wp *workerPool) close() {
	wp.once.Do(func() {
		wp.drain()
		for _, w := range wp.workers {
			close(w.units)
		}
		wp.wg.Wait()
	})
}
