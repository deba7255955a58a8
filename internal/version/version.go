// ABOUTME: Product and version constants
// ABOUTME: Reported by the player binary and its status view
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the player's display name
	Product = "Resonate Render"

	// Manufacturer identifies the maintainers
	Manufacturer = "Resonate Protocol"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
