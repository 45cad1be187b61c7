package models

// ParamSpec declares one tensor of an architecture and how it is initialized.
type ParamSpec struct {
	Name  string
	Shape []int
	Init  Init
}

func conv(prefix string, out, in, k int, bias bool) []ParamSpec {
	specs := []ParamSpec{{Name: prefix + ".weight", Shape: []int{out, in, k, k}, Init: kaimingNormalFanOut}}
	if bias {
		specs = append(specs, ParamSpec{Name: prefix + ".bias", Shape: []int{out}, Init: zeros})
	}
	return specs
}

func batchNorm(prefix string, features int) []ParamSpec {
	return []ParamSpec{
		{Name: prefix + ".weight", Shape: []int{features}, Init: ones},
		{Name: prefix + ".bias", Shape: []int{features}, Init: zeros},
		{Name: prefix + ".running_mean", Shape: []int{features}, Init: zeros},
		{Name: prefix + ".running_var", Shape: []int{features}, Init: ones},
	}
}

func linear(prefix string, in, out int, weight, bias Init) []ParamSpec {
	return []ParamSpec{
		{Name: prefix + ".weight", Shape: []int{out, in}, Init: weight},
		{Name: prefix + ".bias", Shape: []int{out}, Init: bias},
	}
}
