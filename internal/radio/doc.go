// Package radio drives the nRF24-class packet radio attached to the gateway.
//
// The radio hangs off a serial adapter speaking a small framed
// command/response protocol. Device is the contract the bridge workers
// use; SerialDevice implements it over any io.ReadWriteCloser, with
// Open wiring it to a real serial port.
//
// # Usage
//
//	dev, err := radio.Open(cfg.Radio.Device, cfg.Radio.BaudRate)
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	if err := dev.Configure(90, 32); err != nil {
//	    return err
//	}
//	if err := dev.SetLocalAddress([]byte(cfg.Radio.LocalAddress)); err != nil {
//	    return err
//	}
package radio
