package main

import (
	"os"

	"github.com/couchcryptid/roster-geo-etl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
