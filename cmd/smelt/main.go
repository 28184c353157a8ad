package main

import (
	"os"

	"github.com/smeltlabs/smelt/internal/smelt"
)

func main() {
	os.Exit(smelt.Main())
}
