package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/reactormq/reactormq"
	"github.com/reactormq/reactormq/transport"
	"github.com/spf13/viper"
)

// newClient builds a reactormq.Client from the bound flags/env/config,
// wiring in the default TCP/TLS transport.
func newClient(extra ...reactormq.Option) *reactormq.Client {
	version := reactormq.ProtocolV50
	if viper.GetInt("version") == 4 {
		version = reactormq.ProtocolV311
	}

	var dialer *transport.Dialer
	if viper.GetBool("tls") {
		dialer = &transport.Dialer{TLSConfig: &tls.Config{}}
	}

	opts := []reactormq.Option{
		reactormq.WithServer(viper.GetString("broker"), viper.GetInt("port")),
		reactormq.WithClientID(viper.GetString("client-id")),
		reactormq.WithCleanSession(viper.GetBool("clean-session")),
		reactormq.WithProtocolVersion(version),
		reactormq.WithSocketFactory(transport.NewFactory(dialer, 30*time.Second)),
	}
	opts = append(opts, extra...)
	return reactormq.New(opts...)
}

// runUntilConnected starts the client's tick loop on runCtx (typically
// long-lived, e.g. the command's own context, so the reactor keeps ticking
// after connect returns) and blocks until Connect resolves or connectCtx
// times out.
func runUntilConnected(runCtx, connectCtx context.Context, client *reactormq.Client, cleanSession bool) error {
	go client.Run(runCtx)
	tok := client.Connect(cleanSession)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-connectCtx.Done():
		return fmt.Errorf("reactormqctl: %w", connectCtx.Err())
	}
}
