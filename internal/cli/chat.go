package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatUser   string
	chatThread string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session.

The assistant remembers your profile, tickets, and notes across
sessions. Threads persist: pass --thread to resume an earlier
conversation.

Examples:
  aide chat                       # new conversation
  aide chat --user priya          # separate memory per user
  aide chat --thread 4f2a...      # resume a thread`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "default", "user id owning the memory")
	chatCmd.Flags().StringVarP(&chatThread, "thread", "t", "", "thread id to resume (default: new thread)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted.")
		cancel()
	}()

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	threadID := chatThread
	if threadID == "" {
		threadID = uuid.New().String()
	}

	fmt.Printf("aide chat (user: %s, thread: %s)\n", chatUser, threadID)
	fmt.Println("Type your message and press Enter. 'quit' or 'exit' to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		reply, err := rt.loop.Turn(ctx, threadID, chatUser, input)
		if err != nil {
			rt.logger.Error("turn error", "error", err)
		}
		fmt.Println(reply)
	}

	fmt.Println("Goodbye.")
	return scanner.Err()
}
