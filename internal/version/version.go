// ABOUTME: Build version and product identification
// ABOUTME: Shown by -version and in the web session banner
package version

import "fmt"

// Version is overridden at build time with -ldflags "-X"
var Version = "0.1.0"

const (
	Product      = "Siervo de Dios"
	Manufacturer = "siervo-de-dios"
)

// String returns the product and version on one line
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
