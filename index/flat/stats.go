package flat

import "github.com/hupe1980/recgo/index"

// Stats describes the built index.
func (f *Flat) Stats() index.Stats {
	return index.Stats{
		Kind:      index.KindExact,
		Dimension: f.opts.Dimension,
		Items:     f.Len(),
	}
}
