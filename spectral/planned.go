package spectral

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/jkorpela/go-psf/logging"
	"github.com/jkorpela/go-psf/vol"
)

// Planned is the optimized transform backend built on gonum's planned
// FFTs. Each transform length gets a reusable plan; the set of planned
// lengths is the "wisdom" persisted across process runs. Independent 1D
// lines of a transform are spread across a bounded pool of worker
// goroutines, and per-length scratch buffers are cached for a keep-alive
// window to avoid reallocation in tight execute loops.
//
// The inverse transform is unnormalized; callers must apply Normalize or
// Normalize2 for numpy-style results.
type Planned struct {
	cfg     Config
	plans   *planTable
	buffers *bufferCache
	wisdom  *wisdom
}

// NewPlanned creates the planned backend with the given configuration,
// loading wisdom from cfg.WisdomPath when present. A missing or corrupt
// wisdom file is logged and regenerated on Close.
func NewPlanned(cfg Config) *Planned {
	w := newWisdom(cfg.WisdomPath)
	if err := w.load(); err != nil {
		logging.Warn("spectral: plan cache unreadable, regenerating", logging.Fields{
			"path":  cfg.WisdomPath,
			"error": err.Error(),
		})
		// Write a fresh file immediately so a bad blob is not read again.
		if serr := w.save(); serr != nil {
			logging.Warn("spectral: cannot write plan cache", logging.Fields{
				"path":  cfg.WisdomPath,
				"error": serr.Error(),
			})
		}
	}

	p := &Planned{
		cfg:     cfg,
		buffers: newBufferCache(cfg.keepAlive()),
		wisdom:  w,
	}
	p.plans = newPlanTable(w.record)

	switch cfg.Effort {
	case EffortSlow:
		p.prewarm(w.lengths())
	case EffortNormal:
		go p.prewarm(w.lengths())
	}
	return p
}

// prewarm builds and parks one plan per recorded length.
func (p *Planned) prewarm(lengths []int) {
	for _, n := range lengths {
		if n < 1 {
			continue
		}
		p.plans.put(n, p.plans.get(n))
	}
}

func (p *Planned) transform(a *vol.CArray, axes []int, inverse bool) {
	for _, axis := range axes {
		n, count, stride, base := lineParams(a.Shape, axis)
		if n == 1 {
			continue
		}

		workers := p.cfg.threads()
		if workers > count {
			workers = count
		}
		if workers <= 1 {
			p.transformLines(a.Data, 0, count, n, stride, base, inverse)
			continue
		}

		var wg sync.WaitGroup
		chunk := (count + workers - 1) / workers
		for w := 0; w < workers; w++ {
			lo := w * chunk
			hi := lo + chunk
			if hi > count {
				hi = count
			}
			if lo >= hi {
				break
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				p.transformLines(a.Data, lo, hi, n, stride, base, inverse)
			}(lo, hi)
		}
		wg.Wait()
	}
}

// transformLines runs lines [lo, hi) along one axis through a borrowed
// plan. Plans are not safe for concurrent use, so every worker owns one
// for the duration of its chunk.
func (p *Planned) transformLines(data []complex128, lo, hi, n, stride int, base func(int) int, inverse bool) {
	plan := p.plans.get(n)
	src := p.buffers.get(n)
	dst := p.buffers.get(n)
	defer func() {
		p.buffers.put(src)
		p.buffers.put(dst)
		p.plans.put(n, plan)
	}()

	for i := lo; i < hi; i++ {
		gather(src, data, base(i), stride, n)
		if inverse {
			plan.Sequence(dst, src)
		} else {
			plan.Coefficients(dst, src)
		}
		scatter(data, dst, base(i), stride, n)
	}
}

// Forward transforms all three axes in place.
func (p *Planned) Forward(a *vol.CArray) {
	p.transform(a, []int{0, 1, 2}, false)
}

// Inverse applies the unnormalized inverse transform over all three axes.
func (p *Planned) Inverse(a *vol.CArray) {
	p.transform(a, []int{0, 1, 2}, true)
}

// Forward2 transforms the (y, x) axes of every z layer in place.
func (p *Planned) Forward2(a *vol.CArray) {
	p.transform(a, []int{1, 2}, false)
}

// Inverse2 applies the unnormalized layer-wise inverse transform.
func (p *Planned) Inverse2(a *vol.CArray) {
	p.transform(a, []int{1, 2}, true)
}

// Normalize divides by the full array size, completing Inverse.
func (p *Planned) Normalize(a *vol.CArray) {
	a.Scale(1 / float64(len(a.Data)))
}

// Normalize2 divides by the layer size, completing Inverse2.
func (p *Planned) Normalize2(a *vol.CArray) {
	a.Scale(1 / float64(a.Shape[1]*a.Shape[2]))
}

// Name identifies the backend.
func (p *Planned) Name() string { return "planned" }

// Close persists the accumulated wisdom. Register it where the process
// tears down; concurrent writers are not guarded and the last writer
// wins.
func (p *Planned) Close() error {
	if err := p.wisdom.save(); err != nil {
		logging.Warn("spectral: cannot write plan cache", logging.Fields{
			"path":  p.cfg.WisdomPath,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// planTable hands out per-length transform plans. Plans park in a
// sync.Pool per length so concurrent workers never share one.
type planTable struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
	onNew func(n int)
}

func newPlanTable(onNew func(int)) *planTable {
	return &planTable{pools: make(map[int]*sync.Pool), onNew: onNew}
}

func (t *planTable) pool(n int) *sync.Pool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pools[n]
	if !ok {
		p = &sync.Pool{New: func() any { return fourier.NewCmplxFFT(n) }}
		t.pools[n] = p
		if t.onNew != nil {
			t.onNew(n)
		}
	}
	return p
}

func (t *planTable) get(n int) *fourier.CmplxFFT {
	return t.pool(n).Get().(*fourier.CmplxFFT)
}

func (t *planTable) put(n int, plan *fourier.CmplxFFT) {
	t.pool(n).Put(plan)
}
