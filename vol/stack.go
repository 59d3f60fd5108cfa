package vol

// Stack is a list of 3D kernels indexed by absolute z layer, the storage
// format of a tabulated PSF: entry z holds the discrete kernel applied to
// output layer z. All kernels share one support shape.
type Stack struct {
	Support [3]int
	Kernels []*Array
}

// NewStack builds a stack from per-layer kernels. All kernels must share
// the same shape; the kernel values must be centered on the lattice
// (origin at index n/2 along each axis).
func NewStack(kernels []*Array) *Stack {
	if len(kernels) == 0 {
		panic("vol: empty kernel stack")
	}
	support := kernels[0].Shape
	for _, k := range kernels[1:] {
		if k.Shape != support {
			panic("vol: kernel stack shapes differ")
		}
	}
	return &Stack{Support: support, Kernels: kernels}
}

// Layers returns the number of kernels in the stack.
func (s *Stack) Layers() int {
	return len(s.Kernels)
}

// Kernel returns the kernel for absolute z layer z.
func (s *Stack) Kernel(z int) *Array {
	return s.Kernels[z]
}
