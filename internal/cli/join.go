package cli

import "github.com/spf13/cobra"

var joinCmd = &cobra.Command{
	Use:   "join CODE",
	Short: "Join an existing room by its 4-letter code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		choice, _ := cmd.Flags().GetInt("choice")
		return runLobby(cfg, args[0], false, choice)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
