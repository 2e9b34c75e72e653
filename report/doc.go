// Package report renders type layouts for people and for other tools.
//
// Describe flattens a type into an Entry. Write renders entries as a
// table, JSON, YAML or CBOR.
package report
