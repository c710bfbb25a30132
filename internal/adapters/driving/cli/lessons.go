package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

var importModule string

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Manage the lesson corpus",
}

var lessonsImportCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Import lesson files into the corpus",
	Long: `Reads .md and .txt files from a directory into the lesson store.
The file name (without extension) becomes the lesson ID, the first line
becomes the title and files are positioned in name order. Re-importing
updates lessons in place. Run 'mentor index' afterwards to make the new
content searchable.`,
	Args: cobra.ExactArgs(1),
	RunE: runLessonsImport,
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runLessonsList,
}

func init() {
	lessonsImportCmd.Flags().StringVar(&importModule, "module", "", "module ID to file the lessons under (default: directory name)")
	lessonsCmd.AddCommand(lessonsImportCmd)
	lessonsCmd.AddCommand(lessonsListCmd)
	rootCmd.AddCommand(lessonsCmd)
}

func runLessonsImport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".md" || ext == ".txt" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no .md or .txt files in %s", dir)
	}

	moduleID := importModule
	if moduleID == "" {
		moduleID = filepath.Base(filepath.Clean(dir))
	}

	store, err := ensureLessonStore()
	if err != nil {
		return err
	}

	imported := 0
	for position, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		title, body := splitLessonFile(string(data))
		if title == "" {
			title = id
		}

		lesson := domain.Lesson{
			ID:       id,
			ModuleID: moduleID,
			Title:    title,
			Body:     body,
			Position: position,
		}
		if err := store.Put(cmd.Context(), lesson); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
		imported++
	}

	cmd.Printf("Imported %d lessons into module %q\n", imported, moduleID)
	cmd.Println("Run 'mentor index' to make them searchable.")
	return nil
}

func runLessonsList(cmd *cobra.Command, _ []string) error {
	store, err := ensureLessonStore()
	if err != nil {
		return err
	}

	lessons, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}
	if len(lessons) == 0 {
		cmd.Println("No lessons in the corpus. Import some with 'mentor lessons import'.")
		return nil
	}

	module := ""
	for _, l := range lessons {
		if l.ModuleID != module {
			module = l.ModuleID
			cmd.Printf("%s:\n", module)
		}
		cmd.Printf("  %-24s %s\n", l.ID, l.Title)
	}
	return nil
}

// splitLessonFile derives (title, body) from a lesson file: the first
// non-empty line is the title, with any markdown heading marker
// stripped; the body is the whole file.
func splitLessonFile(content string) (string, string) {
	body := strings.TrimSpace(content)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(line, "# ")), body
	}
	return "", body
}
