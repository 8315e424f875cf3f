package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bshell/bsh/core"
	"github.com/bshell/bsh/core/config"
)

// rootCmd represents the shell when invoked. There are no flags and no
// subcommands: the shell reads commands from standard input until
// end-of-input.
var rootCmd = &cobra.Command{
	Use:   "bsh",
	Short: "A small interactive command interpreter",
	Long: `bsh reads one simple command per line and runs it, either as a shell
builtin or by spawning the named program and waiting for it to finish.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := config.Load(config.DefaultPath())
		if err != nil {
			return err
		}

		shell, err := core.NewShell(configuration, os.Stdin, os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
		defer shell.Close()

		return shell.Run()
	},
}

// Execute runs the root command. It is called by main.main(). A fatal
// failure exits with status 1; clean end-of-input exits with status 0.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
