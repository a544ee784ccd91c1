package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"summarizeit/internal/core/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the summarizeit config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}

		path, _ := config.ConfigPath()
		fmt.Printf("Saved %s\n", path)
		fmt.Println("Set OPENAI_API_KEY (and ANTHROPIC_API_KEY if using the anthropic provider) in your environment.")
		return nil
	},
}
