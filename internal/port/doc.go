// Package port provides TCP port availability checks for validator
// environments.
//
// The environment registry guarantees ports are unique across defined
// environments; this package guards against conflicts with unrelated
// processes on the host. Available probes a single port, and NextFree
// suggests a replacement when a spawn fails with a port conflict.
package port
