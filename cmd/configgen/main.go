package main

import (
	"flag"
	"log"

	"github.com/danmuck/ensemblectl/internal/config"
)

func main() {
	output := flag.String("output", "ensemble.toml", "output path for the options template")
	validate := flag.Bool("validate", false, "validate an existing options file")
	input := flag.String("input", "ensemble.toml", "options path for validation")
	force := flag.Bool("force", false, "overwrite existing options file")
	flag.Parse()

	if *validate {
		if _, err := config.LoadFile(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated options at %s", *input)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote options template to %s", *output)
}
