// Package shdlc provides the SHDLC data link used by Sensirion sensors.
package shdlc

// SHDLC is a master/slave protocol over a point-to-point (RS-232) or
// multi-drop (RS-485) serial link. Each frame is delimited by 0x7E, the
// body is byte-stuffed so the delimiter never appears inside it, and a
// single byte checksum covers address, command, length and data.
//
// The master sends one request frame and waits for the response frame from
// the addressed slave before sending the next one. A slave reports a
// failure by setting the high bit of the command byte in its response and
// carrying the error code as the first data byte.
//
// Producer: master (this package)
// Consumer: slave device
