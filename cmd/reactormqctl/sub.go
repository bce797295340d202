package main

import (
	"context"
	"fmt"
	"time"

	"github.com/reactormq/reactormq"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var subFilter string

var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Subscribe to a topic filter and print incoming messages until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		connectCtx, cancelConnect := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancelConnect()

		client := newClient()
		if err := runUntilConnected(cmd.Context(), connectCtx, client, true); err != nil {
			return fmt.Errorf("sub: connect: %w", err)
		}

		qos := reactormq.QoS(viper.GetInt("qos"))
		tok := client.Subscribe(subFilter, qos, func(msg reactormq.Message) {
			log.Infof("%s: %s", msg.Topic, string(msg.Payload))
		})
		if err := tok.Wait(connectCtx); err != nil {
			return fmt.Errorf("sub: subscribe: %w", err)
		}
		log.Infof("subscribed to %s", subFilter)

		<-cmd.Context().Done()

		return client.Disconnect().Wait(context.Background())
	},
}

func init() {
	flags := subCmd.Flags()
	flags.StringVarP(&subFilter, "filter", "f", "#", "topic filter to subscribe to")
}
