package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rfpworks/rfpworks/internal/cli"
	"github.com/rfpworks/rfpworks/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rfpworksd",
		Short: "RFPWorks daemon and CLI",
		Long:  "RFPWorks daemon for running the answer generation API server and maintaining the document index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.AnswerCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
