// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the Orion board firmware and the
// L1 controller over a serial port.
//
// Requests are fire-and-forget: a GET request never returns a handle to
// its reply. Replies are correlated to devices purely by index, and carry
// two independently sized segments: the current value and the board time
// (millis) at which it was sampled. There is no sequence number and no
// checksum; a frame whose length byte disagrees with its content is
// dropped.
//
// Producer: L1 controller (requests), Orion firmware (replies)
// Consumer: Orion firmware (requests), L1 controller (replies)
