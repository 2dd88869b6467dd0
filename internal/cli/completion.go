package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var completionInstall bool

// completionShell describes how to generate and install one shell's script.
type completionShell struct {
	generate func(w io.Writer) error
	// loadHint is the one-liner that loads completions into the current session.
	loadHint string
	// target returns the install path under home; nil means no automatic install.
	target func(home string) string
	// postInstall lines are printed after a successful install.
	postInstall func(target string) []string
}

var completionShells = map[string]completionShell{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		loadHint: `eval "$(feedme completion bash)"`,
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "feedme")
		},
		postInstall: func(target string) []string {
			return []string{"Restart your shell or run: source " + target}
		},
	},
	"zsh": {
		generate: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		loadHint: `eval "$(feedme completion zsh)"`,
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_feedme")
		},
		postInstall: func(target string) []string {
			return []string{
				"Ensure this directory is in your fpath. Add to ~/.zshrc if needed:",
				fmt.Sprintf("  fpath=(%s $fpath)", filepath.Dir(target)),
				"  autoload -Uz compinit && compinit",
			}
		},
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		loadHint: "feedme completion fish | source",
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "feedme.fish")
		},
		postInstall: func(string) []string {
			return []string{"Completions will be available in new fish sessions automatically."}
		},
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		loadHint: "feedme completion powershell | Out-String | Invoke-Expression",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for feedme",
	Long: `Set up shell tab-completions for feedme commands, flags, and task IDs.

Supported shells: bash, zsh, fish, powershell

Quick install:

  feedme completion bash --install
  feedme completion zsh --install
  feedme completion fish --install

Or print the completion script to stdout (for manual setup):

  feedme completion bash
  feedme completion powershell`,
	ValidArgs: supportedShells(),
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell's completion directory")

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func supportedShells() []string {
	names := make([]string, 0, len(completionShells))
	for name := range completionShells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := completionShells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: %v)", args[0], supportedShells())
	}

	if completionInstall {
		return installCompletion(args[0], shell)
	}

	// Hints go to stderr so eval "$(feedme completion bash)" stays clean.
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(w, "# To load completions in your current session:")
	_, _ = fmt.Fprintf(w, "#   %s\n", shell.loadHint)
	if shell.target != nil {
		_, _ = fmt.Fprintf(w, "# To install permanently:\n#   feedme completion %s --install\n", args[0])
	}
	return shell.generate(cmd.OutOrStdout())
}

func installCompletion(name string, shell completionShell) error {
	if shell.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'feedme completion %s' and add the output to your profile", name, name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := shell.target(home)

	var buf bytes.Buffer
	if err := shell.generate(&buf); err != nil {
		return fmt.Errorf("generating %s completions: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := atomic.WriteFile(target, &buf); err != nil {
		return fmt.Errorf("writing completion file %s: %w", target, err)
	}

	fmt.Printf("%s completions installed to %s\n", name, target)
	for _, line := range shell.postInstall(target) {
		fmt.Println(line)
	}
	return nil
}
