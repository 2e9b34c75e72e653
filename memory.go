package machinelayout

// Memory is a byte-addressed view of machine memory that enum tags can be
// read from.
type Memory interface {
	Read(offset uint64, length uint64) ([]byte, error)
	Size() uint64
}
