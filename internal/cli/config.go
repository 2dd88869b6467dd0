package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"gopkg.in/yaml.v3"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration",
	Long: `Show the effective configuration: .feedmeconfig merged with built-in
defaults and FEEDME_* environment overrides (e.g. FEEDME_POMODORO_FOCUS=50m).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		data, err := encodeConfig(core.ConfigDocument(&cfg))
		if err != nil {
			return err
		}
		fmt.Printf("# base path: %s\n", BasePath)
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .feedmeconfig with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := BasePath
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, core.ConfigFileName)
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}

		data, err := encodeConfig(core.ConfigDocument(core.DefaultGlobalConfig()))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func encodeConfig(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing .feedmeconfig")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
