package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lurkgate",
	Short: "lurkgate is the edge security gateway for the geeklurk blog",
	Long: `lurkgate fronts the blog's dynamic endpoints with rate limiting,
login lockout, session management, cross-origin checks and upload
validation, and serves the comment, reaction and writeup-upload APIs.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
