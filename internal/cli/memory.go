package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aide-oss/aide/internal/config"
	"github.com/aide-oss/aide/internal/memory"
)

var (
	memoryUser string
	memoryKind string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show stored memory for a user",
	Long: `Show what the assistant remembers about a user.

Examples:
  aide memory                     # everything for the default user
  aide memory --user priya        # everything for priya
  aide memory --kind ticket       # just the ticket list`,
	RunE: runMemory,
}

func init() {
	memoryCmd.Flags().StringVarP(&memoryUser, "user", "u", "default", "user id")
	memoryCmd.Flags().StringVarP(&memoryKind, "kind", "k", "", "memory kind (profile, ticket, instructions, feedback, research)")
}

func runMemory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := memory.NewStore(cfg.Memory.Driver, cfg.Memory.Path)
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	snap, err := memory.LoadSnapshot(store, memoryUser)
	if err != nil {
		return fmt.Errorf("failed to load memory: %w", err)
	}

	if memoryKind != "" {
		kind, err := memory.ParseKind(memoryKind)
		if err != nil {
			return err
		}
		fmt.Println(snap.RenderKind(kind))
		return nil
	}

	sections := []struct {
		title string
		kind  memory.Kind
	}{
		{"Profile", memory.KindProfile},
		{"Tickets", memory.KindTicket},
		{"Instructions", memory.KindInstructions},
		{"Feedback", memory.KindFeedback},
		{"Research", memory.KindResearch},
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s:\n%s\n", section.title, snap.RenderKind(section.kind))
	}
	return nil
}
