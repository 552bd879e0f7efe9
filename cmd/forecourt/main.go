package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/veloq/forecourt"
	"github.com/veloq/forecourt/config"
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Error processing config: %s", err)
	}

	log.Fatal(forecourt.Run(cfg.ToOptions()))
}
