package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Connect, print the reactor's lifecycle state once, then disconnect",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := newClient()
		if err := runUntilConnected(cmd.Context(), ctx, client, true); err != nil {
			return fmt.Errorf("stats: connect: %w", err)
		}

		log.Infof("state: %s", client.State())
		return client.Disconnect().Wait(context.Background())
	},
}
