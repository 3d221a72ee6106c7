// Package probes contains the built-in check implementations: HTTP
// availability, TLS certificate expiry, DNS resolution, mail-protocol
// handshakes, and ICMP ping.
//
// Each probe parses its own configuration map and owns its own conservative
// I/O timeout (the "timeout" config key), since the batch engine's wait
// budget does not interrupt a blocked network call. DefaultRegistry builds
// the explicit check table registered at process start.
package probes
