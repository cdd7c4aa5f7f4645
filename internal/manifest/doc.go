// Package manifest composes seeds, teaching units, accepted baskets and
// registered samples into the distributable course document.
//
// Every text the manifest points at must already be in the registry. A
// missing entry fails only the seed it belongs to; the remaining seeds are
// still assembled and the failures are returned alongside the manifest.
package manifest
