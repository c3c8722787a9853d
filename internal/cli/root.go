package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/oculair/graphpoll/internal/cli.version=1.2.3"
	version = "1.3.0"
	logo    = "\n" +
		"                        _           _ _\n" +
		"   __ _ _ __ __ _ _ __ | |__  _ __ | | |\n" +
		"  / _` | '__/ _` | '_ \\| '_ \\| '_ \\| | |\n" +
		" | (_| | | | (_| | |_) | | | | |_) | | |\n" +
		"  \\__, |_|  \\__,_| .__/|_| |_| .__/|_|_|\n" +
		"  |___/          |_|         |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "graphpoll",
	Short: "graphpoll - Letta to Graphiti message poller",
	Long:  color.CyanString(logo) + "\nPolls Letta agents for new messages and forwards them to a Graphiti knowledge graph.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ graphpoll Version")
		fmt.Printf("Version: %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}
