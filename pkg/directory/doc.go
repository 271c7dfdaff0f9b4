// Package directory finds where an application runs by asking the hosting
// network's directory peers.
//
// A Selector walks the static peer list in order and keeps the first peers
// (five by default) that accept a TCP connection on the control port. A
// Locator then asks one of them for /apps/location/<app> and turns the answer
// into candidate endpoints with ports stripped.
//
// Neither step fails loudly. An empty selection means "no data this pass" and
// a failed query means "no candidates", and both leave DNS untouched.
package directory
