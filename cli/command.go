package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/logging"
)

// CommandOptions holds common options for br0wse commands
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to br0wse.yml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the cli component logger, raised to debug by --verbose.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads --config when given, else searches from the working
// directory. The returned path is empty when only defaults are in effect.
func LoadConfig(opts CommandOptions) (*config.Config, string, error) {
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		return cfg, opts.ConfigFile, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return config.LoadFrom(cwd, logging.NewLogger("config").Logger)
}
