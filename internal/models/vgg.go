package models

import "fmt"

const vggPool = -1

var vggLayouts = map[int][]int{
	11: {64, vggPool, 128, vggPool, 256, 256, vggPool, 512, 512, vggPool, 512, 512, vggPool},
	13: {64, 64, vggPool, 128, 128, vggPool, 256, 256, vggPool, 512, 512, vggPool, 512, 512, vggPool},
	16: {64, 64, vggPool, 128, 128, vggPool, 256, 256, 256, vggPool, 512, 512, 512, vggPool, 512, 512, 512, vggPool},
	19: {64, 64, vggPool, 128, 128, vggPool, 256, 256, 256, 256, vggPool, 512, 512, 512, 512, vggPool, 512, 512, 512, 512, vggPool},
}

// vgg mirrors the torchvision feature/classifier layout. Module indices count
// conv, batch-norm, relu and pool layers so tensor names line up with it.
type vgg struct {
	depth     int
	batchNorm bool
}

func (v vgg) Metadata() ArchitectureMetadata {
	id := fmt.Sprintf("vgg%d", v.depth)
	desc := fmt.Sprintf("VGG-%d", v.depth)
	if v.batchNorm {
		id += "_bn"
		desc += " with batch normalization"
	}
	return ArchitectureMetadata{ID: id, Family: "vgg", Description: desc}
}

func (v vgg) Params(opts Options) []ParamSpec {
	var specs []ParamSpec
	in, idx := inputChannels, 0
	for _, width := range vggLayouts[v.depth] {
		if width == vggPool {
			idx++
			continue
		}
		specs = append(specs, conv(fmt.Sprintf("features.%d", idx), width, in, 3, true)...)
		idx++
		if v.batchNorm {
			specs = append(specs, batchNorm(fmt.Sprintf("features.%d", idx), width)...)
			idx++
		}
		idx++
		in = width
	}

	head := normal(0.01)
	if opts.SmallInputs {
		return append(specs, linear("classifier", 512, opts.NumClasses, head, zeros)...)
	}
	specs = append(specs, linear("classifier.0", 512*7*7, 4096, head, zeros)...)
	specs = append(specs, linear("classifier.3", 4096, 4096, head, zeros)...)
	return append(specs, linear("classifier.6", 4096, opts.NumClasses, head, zeros)...)
}
