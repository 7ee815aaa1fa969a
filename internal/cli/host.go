package cli

import "github.com/spf13/cobra"

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Create a room and wait for players",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		private, _ := cmd.Flags().GetBool("private")
		choice, _ := cmd.Flags().GetInt("choice")
		return runLobby(cfg, "", private, choice)
	},
}

func init() {
	hostCmd.Flags().Bool("private", false, "exclude the room from public discovery")
	rootCmd.AddCommand(hostCmd)
}
