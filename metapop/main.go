// Command metapop simulates mutation accumulation in a viral
// metapopulation.
package main

import "github.com/sarchlab/metapop/metapop/cmd"

func main() {
	cmd.Execute()
}
