// Giiker - CLI for decoding, watching and recording a Giiker smart cube.
package main

import (
	"github.com/SeamusWaldron/giiker_ble_library/internal/cli"
)

func main() {
	cli.Execute()
}
