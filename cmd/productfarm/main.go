package main

import (
	"os"

	"github.com/ayushmaanbhav/product-farm-sub002/cmd/productfarm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
