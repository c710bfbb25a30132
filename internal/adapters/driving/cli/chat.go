package cli

import (
	"github.com/spf13/cobra"

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a terminal chat with the course assistant. Conversation
history is carried between questions within the session.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	assistant, err := ensureAssistant()
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), assistant)
}
