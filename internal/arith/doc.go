// Package arith provides checked unsigned arithmetic shared by the layout
// packages. Every helper reports overflow instead of wrapping.
//
// This package is internal to the module.
package arith
