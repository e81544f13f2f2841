package main

import (
	"os"

	"github.com/nohuhu/typecache/coremain"
)

func main() {
	if err := coremain.Run(); err != nil {
		os.Exit(1)
	}
}
