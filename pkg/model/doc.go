// Package model defines the typed values shared by the form packages: field
// descriptors, remote-sourced Options and the ordered Selection used by
// multi-select controls. Selector-bound draft fields always hold full Options
// (identifier plus label); projection to bare identifiers happens only when a
// submission payload is built.
package model
