package models

import "fmt"

// resnet is the basic-block ResNet family. Small inputs swap the 7x7 stem for
// a 3x3 one; the max-pool it drops carries no parameters.
type resnet struct {
	depth  int
	blocks [4]int
}

func (r resnet) Metadata() ArchitectureMetadata {
	return ArchitectureMetadata{
		ID:          fmt.Sprintf("resnet%d", r.depth),
		Family:      "resnet",
		Description: fmt.Sprintf("ResNet-%d (basic blocks)", r.depth),
	}
}

func (r resnet) Params(opts Options) []ParamSpec {
	stem := 7
	if opts.SmallInputs {
		stem = 3
	}
	specs := conv("conv1", 64, inputChannels, stem, false)
	specs = append(specs, batchNorm("bn1", 64)...)

	in := 64
	for stage, planes := range [4]int{64, 128, 256, 512} {
		stride := 2
		if stage == 0 {
			stride = 1
		}
		for b := 0; b < r.blocks[stage]; b++ {
			prefix := fmt.Sprintf("layer%d.%d", stage+1, b)
			specs = append(specs, conv(prefix+".conv1", planes, in, 3, false)...)
			specs = append(specs, batchNorm(prefix+".bn1", planes)...)
			specs = append(specs, conv(prefix+".conv2", planes, planes, 3, false)...)
			specs = append(specs, batchNorm(prefix+".bn2", planes)...)
			if b == 0 && (stride != 1 || in != planes) {
				specs = append(specs, conv(prefix+".downsample.0", planes, in, 1, false)...)
				specs = append(specs, batchNorm(prefix+".downsample.1", planes)...)
			}
			in = planes
		}
	}

	fc := uniformFanIn(512)
	return append(specs, linear("fc", 512, opts.NumClasses, fc, fc)...)
}
