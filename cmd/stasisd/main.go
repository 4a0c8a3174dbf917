/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/stasis-io/stasis/pkg/api"
)

func main() {
	configPath := flag.String("config", os.Getenv("STASIS_CONFIG"), "path to YAML configuration file")
	flag.Parse()

	if err := api.Serve(context.Background(), *configPath); err != nil {
		log.Fatal(err)
	}
}
