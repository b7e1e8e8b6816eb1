// Package discovery resolves .local broker hostnames via multicast DNS.
//
// Field deployments name the broker with an mDNS hostname rather than a
// fixed address. The resolver performs one bounded A-record query at
// startup and falls back to the configured name when resolution fails,
// so a missing mDNS responder delays startup but never prevents it.
//
// # Usage
//
//	resolver, err := discovery.New(10*time.Second, logger)
//	if err != nil {
//	    return err
//	}
//	defer resolver.Close()
//
//	host := resolver.Resolve(ctx, cfg.MQTT.Broker.Host)
package discovery
