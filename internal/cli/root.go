// Package cli implements the cable demo client: a headless lobby
// participant that hosts or joins a room and drives negotiation to an open
// data channel.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kfalicov/super-swash-bros/internal/config"
	"github.com/kfalicov/super-swash-bros/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "cable",
	Short:   "Lobby client for super swash bros",
	Long:    `Cable hosts or joins a four-player room on the signaling server, exchanges the offer/answer/candidate handshake with the other players, and keeps the resulting peer link open until interrupted.`,
	Version: version.Version,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("server", "", "signaling server websocket URL")
	flags.String("stun", "", "STUN server URL")
	flags.String("turn", "", "TURN server URL")
	flags.String("turn-user", "", "TURN username")
	flags.String("turn-pass", "", "TURN password")
	flags.Int("choice", 0, "character choice, 0 for unselected")
}

// Execute runs the root command.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	server, _ := flags.GetString("server")
	stun, _ := flags.GetString("stun")
	turn, _ := flags.GetString("turn")
	turnUser, _ := flags.GetString("turn-user")
	turnPass, _ := flags.GetString("turn-pass")

	return config.Load(config.Options{
		ServerURL:  server,
		STUNServer: stun,
		TURNServer: turn,
		TURNUser:   turnUser,
		TURNPass:   turnPass,
	})
}
