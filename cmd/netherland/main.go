// Command netherland simulates salt-marsh sediment cores.
package main

import "github.com/mesh-intelligence/netherland/internal/cli"

func main() {
	cli.Execute()
}
