package main

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reactormqctl",
	Short: "Drive an MQTT broker through the reactormq client engine",
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.reactormqctl.yaml)")
	flags.String("broker", "localhost", "MQTT broker host")
	flags.Int("port", 1883, "MQTT broker port")
	flags.String("client-id", "", "MQTT client id (default: generated)")
	flags.Int("qos", 0, "QoS level (0, 1, or 2)")
	flags.Bool("clean-session", true, "start a clean session")
	flags.Bool("tls", false, "connect over TLS")
	flags.Int("version", 5, "MQTT protocol version (4 or 5)")

	_ = viper.BindPFlags(flags)

	rootCmd.AddCommand(connectCmd, pubCmd, subCmd, statsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".reactormqctl")
		viper.AddConfigPath("$HOME")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REACTORMQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("using config file %s", viper.ConfigFileUsed())
	}
}
