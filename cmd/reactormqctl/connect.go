package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a broker and hold the session open until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		connectCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := newClient()
		if err := runUntilConnected(cmd.Context(), connectCtx, client, viper.GetBool("clean-session")); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		log.Infof("connected to %s:%d as %s", viper.GetString("broker"), viper.GetInt("port"), viper.GetString("client-id"))

		<-cmd.Context().Done()
		tok := client.Disconnect()
		return tok.Wait(context.Background())
	},
}
