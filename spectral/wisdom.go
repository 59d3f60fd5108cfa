package spectral

import (
	"encoding/gob"
	"os"
	"sort"
	"sync"
)

// wisdomBlob is the on-disk form of the plan cache. The format is opaque
// to everything but this backend; no compatibility beyond a gob round
// trip is promised.
type wisdomBlob struct {
	Lengths []int
}

// wisdom tracks the set of transform lengths that have been planned, for
// persistence across process runs.
type wisdom struct {
	mu   sync.Mutex
	path string
	seen map[int]bool
}

func newWisdom(path string) *wisdom {
	return &wisdom{path: path, seen: make(map[int]bool)}
}

// record notes a freshly planned length.
func (w *wisdom) record(n int) {
	w.mu.Lock()
	w.seen[n] = true
	w.mu.Unlock()
}

// lengths returns the recorded lengths in ascending order.
func (w *wisdom) lengths() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, 0, len(w.seen))
	for n := range w.seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// load merges the persisted blob into the recorded set. A missing path
// configuration is not an error; anything else is reported so the caller
// can log it and regenerate.
func (w *wisdom) load() error {
	if w.path == "" {
		return nil
	}
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var blob wisdomBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return err
	}

	w.mu.Lock()
	for _, n := range blob.Lengths {
		if n > 0 {
			w.seen[n] = true
		}
	}
	w.mu.Unlock()
	return nil
}

// save writes the recorded set to the configured path. Last writer wins;
// concurrent processes are not guarded.
func (w *wisdom) save() error {
	if w.path == "" {
		return nil
	}
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(wisdomBlob{Lengths: w.lengths()})
}
