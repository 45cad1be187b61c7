package config

import (
	"fmt"
	"os"
)

func Template() string {
	return optionsTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(optionsTemplate), 0o600)
}

const optionsTemplate = `# ensemblectl options; command-line flags override these values.
arch = "vgg16"
n_channels = 3
small_inputs = false
override_directory = false
workers = 1
history_file = "CMDs/setup_ensemble.cmd"
# metrics_file = "ensemble.prom"
`
