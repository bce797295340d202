// Package reactormq is a tick-driven MQTT v3.1.1 / v5.0 client engine.
//
// Unlike a conventional goroutine-per-connection client, the engine core
// (Reactor, Context, and the connection states) is single-threaded: all
// protocol state is touched only from the goroutine that calls Client.Run
// (or repeatedly calls Reactor.Tick). Every other goroutine — including the ones
// started by the default transport to read the socket — communicates with
// the reactor strictly by enqueuing commands or posting events, never by
// touching engine state directly.
//
// # Quick start
//
//	client := reactormq.New(
//	    reactormq.WithClientID("my-client"),
//	    reactormq.WithServer("localhost", 1883),
//	    reactormq.WithSocketFactory(transport.NewFactory(nil, 30*time.Second)),
//	)
//	go client.Run(context.Background())
//
//	token := client.Connect(true)
//	if err := token.Wait(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
//	client.Subscribe("sensors/+/temperature", reactormq.AtLeastOnce,
//	    func(msg reactormq.Message) {
//	        fmt.Printf("%s: %s\n", msg.Topic, msg.Payload)
//	    })
//
//	pubToken := client.Publish("sensors/kitchen/temperature", []byte("21.5"), reactormq.AtLeastOnce, false)
//	_ = pubToken.Wait(context.Background())
//
// # Lifecycle
//
// The engine moves through four states: Disconnected, Connecting, Ready,
// and Closing, and from Closing back to Disconnected. Connect and Disconnect return a Token;
// Publish, Subscribe, and Unsubscribe do too. All tokens resolve exactly
// once, whether the operation succeeds, is rejected by the broker, or is
// abandoned because the connection dropped.
//
// # MQTT v5.0 and v3.1.1
//
// The same Client API works against either protocol version. Properties
// and reason codes are only meaningful for v5.0; they are silently dropped
// when WithProtocolVersion(reactormq.ProtocolV311) is selected.
//
// # Collaborators
//
// The engine depends on a small set of capabilities it never implements
// itself: Socket (the transport), CredentialsProvider (plain or enhanced
// auth), CallbackExecutor (where user handlers run), and Logger. Default,
// production-usable implementations ship in the transport, auth, and
// dispatch subpackages; swap any of them out without touching the core.
package reactormq
