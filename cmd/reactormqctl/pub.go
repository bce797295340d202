package main

import (
	"context"
	"fmt"
	"time"

	"github.com/reactormq/reactormq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	pubTopic   string
	pubMessage string
	pubRetain  bool
)

var pubCmd = &cobra.Command{
	Use:   "pub",
	Short: "Publish a single message and disconnect",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := newClient()
		if err := runUntilConnected(cmd.Context(), ctx, client, true); err != nil {
			return fmt.Errorf("pub: connect: %w", err)
		}

		qos := reactormq.QoS(viper.GetInt("qos"))
		tok := client.Publish(pubTopic, []byte(pubMessage), qos, pubRetain)
		if err := tok.Wait(ctx); err != nil {
			return fmt.Errorf("pub: publish: %w", err)
		}

		return client.Disconnect().Wait(context.Background())
	},
}

func init() {
	flags := pubCmd.Flags()
	flags.StringVarP(&pubTopic, "topic", "t", "", "topic to publish to (required)")
	flags.StringVarP(&pubMessage, "message", "m", "", "message payload")
	flags.BoolVarP(&pubRetain, "retain", "r", false, "set the retain flag")
	_ = pubCmd.MarkFlagRequired("topic")
}
