// Package bridge moves radio frames between the radio device and the
// MQTT transport.
//
// The data path is two workers joined by a ByteChannel:
//
//	uplink:   radio → RadioWorker → ByteChannel → TransportWorker → MQTT
//	downlink: MQTT → TransportWorker → ByteChannel → RadioWorker → radio
//
// A node runs exactly one worker pair, selected by its configured role.
// The radio is half-duplex, so one end of a link receives over the air
// and publishes (uplink) while the other subscribes and transmits
// (downlink).
//
// Bridge wires the pair together, owns the channels, and runs the
// periodic health reporter. Workers run until the channels are closed
// or the process terminates; a failure in one worker does not stop its
// partner.
package bridge
