package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"termcal/config"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show termcal settings",
	Long: `Print the config file location and the effective configuration,
including defaults for anything the file leaves out.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConfigShow(os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.ConfigPath()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit settings interactively",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := config.Load()
		components.ApplyTheme(cfg.Theme)
		if err := RunConfigTUI(); err != nil {
			fmt.Printf("Error running config: %v\n", err)
			os.Exit(1)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := runConfigInit(configInitForce)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Wrote", path)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(w io.Writer) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	status := ""
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		status = " (not created yet, showing defaults)"
	}
	fmt.Fprintf(w, "# %s%s\n", path, status)

	// Mask API keys
	for i := range cfg.AIProviders {
		if cfg.AIProviders[i].APIKey != "" {
			cfg.AIProviders[i].APIKey = "********"
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n# themes: %v\n", components.Themes())
	fmt.Fprintf(w, "# languages: %v\n", i18n.SupportedLanguages)
	return nil
}

func runConfigInit(force bool) (string, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(); err != nil {
		return "", err
	}
	return path, nil
}
