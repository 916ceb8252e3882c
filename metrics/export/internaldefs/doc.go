// Package internaldefs fixes the stable export names shared by the metrics
// exporters. It is not part of the public API surface.
package internaldefs
