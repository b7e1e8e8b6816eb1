// Package mqtt provides MQTT client connectivity for the radiobridge gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Frame publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway uses MQTT as the backhaul transport connecting radio links
// to the rest of the system. An uplink node publishes frames it receives
// over the air; a downlink node subscribes and transmits what arrives.
//
//	Radio link ↔ Gateway ↔ MQTT Broker ↔ consumers / producers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a received radio frame
//	topic := mqtt.Topics{}.Frames("paddock-link")
//	client.Publish(topic, frame, 1, false)
//
//	// Receive frames destined for the radio
//	err = client.Subscribe(topic, 1,
//	    func(topic string, payload []byte) error {
//	        return forwardToRadio(payload)
//	    })
package mqtt
