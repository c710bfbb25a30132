package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the course material",
	Long: `Retrieves the most relevant lesson chunks for the question and
generates a grounded answer with citations. When retrieval is down the
answer is produced without course context and marked as degraded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	assistant, err := ensureAssistant()
	if err != nil {
		return err
	}

	answer, err := assistant.Answer(cmd.Context(), args[0], nil)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("question must not be empty")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s (%s)\n", i+1, c.Title, c.LessonID)
		}
	}
	if answer.Degraded {
		cmd.Println()
		cmd.Println("Note: answered with limited course context.")
	}
	return nil
}
