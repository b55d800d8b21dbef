// Package internaldefs holds the metric names and bucket bounds shared by the
// exporter packages, so every exporter publishes identical series.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
