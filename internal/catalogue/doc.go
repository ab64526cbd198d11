// Package catalogue holds particle catalogues (galaxy or random positions with
// mean number densities and weights) and the geometry operations that place
// them in a measurement box.
//
// Every coordinate mutation recomputes the catalogue bounds before returning,
// so Bounds is never stale. Paired operations (Centre, PadInBox,
// BoxifyForTransform with a reference catalogue) apply one offset, computed
// from the reference alone, to both catalogues; aligning a data/random pair
// with independent calls breaks their correspondence.
//
// A Catalogue is not safe for concurrent mutation.
package catalogue
