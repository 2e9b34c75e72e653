package ptr

import (
	"sort"
	"sync"

	"github.com/wippyai/machine-layout/mem"
)

// VTableName addresses a vtable in the machine's global table.
type VTableName string

// VTableIndex selects a method slot.
type VTableIndex uint32

// FnName names the function implementing a slot.
type FnName string

// VTable holds the layout of the concrete type behind a trait object and
// its method slots.
type VTable struct {
	Methods map[VTableIndex]FnName
	Size    mem.Size
	Align   mem.Align
}

// Method returns the function in slot i.
func (v *VTable) Method(i VTableIndex) (FnName, bool) {
	fn, ok := v.Methods[i]
	return fn, ok
}

// VTableLookup resolves vtable names. Implementations must be safe for
// concurrent reads.
type VTableLookup interface {
	LookupVTable(name VTableName) (*VTable, bool)
}

// VTableMap is a fixed table.
type VTableMap map[VTableName]*VTable

func (m VTableMap) LookupVTable(name VTableName) (*VTable, bool) {
	vt, ok := m[name]
	return vt, ok
}

// VTables is the live vtable table of a machine. Entries are added as trait
// objects are instantiated and removed when their code is unloaded.
type VTables struct {
	entries map[VTableName]*VTable
	mu      sync.RWMutex
}

func NewVTables() *VTables {
	return &VTables{entries: make(map[VTableName]*VTable)}
}

// Insert adds or replaces a vtable.
func (t *VTables) Insert(name VTableName, vt *VTable) {
	t.mu.Lock()
	t.entries[name] = vt
	t.mu.Unlock()
}

// Remove drops a vtable; later lookups of name report it as dangling.
func (t *VTables) Remove(name VTableName) {
	t.mu.Lock()
	delete(t.entries, name)
	t.mu.Unlock()
}

func (t *VTables) LookupVTable(name VTableName) (*VTable, bool) {
	t.mu.RLock()
	vt, ok := t.entries[name]
	t.mu.RUnlock()
	return vt, ok
}

func (t *VTables) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Names returns the live names in sorted order.
func (t *VTables) Names() []VTableName {
	t.mu.RLock()
	names := make([]VTableName, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
