// Package cli implements the rostersync command line. Every command loads the
// configuration, builds a store with the sync operations wired to it, and talks to
// the REST server through them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tansive/rostersync/internal/common/apperrors"
	"github.com/tansive/rostersync/internal/common/logtrace"
	"github.com/tansive/rostersync/internal/rostersync/config"
)

// ErrAlreadyHandled is returned by commands that already reported their failure.
var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var warnLabel = color.New(color.FgYellow)
var errorLabel = color.New(color.FgRed)

// options holds the persistent flags and the configuration they select.
type options struct {
	configFile string
	tenantID   int
	jsonOutput bool
	yamlOutput bool

	cfg *config.ConfigParam
}

func (o *options) format() outputFormat {
	switch {
	case o.jsonOutput:
		return formatJSON
	case o.yamlOutput:
		return formatYAML
	}
	return formatText
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "rostersync [command] [flags]",
		Short: "Rostersync - keeps a local roster in sync with a rostering server",
		Long: `Rostersync reads and edits the skills, contracts, spots and employees of a
rostering tenant through its REST API.

Examples:
  # List the skills of tenant 2
  rostersync skill list --tenant 2

  # Rename a skill; spots and employees are reloaded afterwards
  rostersync skill rename 4 "Critical care"

  # Run the in-memory reference server
  rostersync serve`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().IntVarP(&opts.tenantID, "tenant", "t", -1, "Tenant to work on (defaults to tenant_id from the config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&opts.yamlOutput, "yaml", "y", false, "Output in YAML format")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newSkillCmd(opts))
	for _, cmd := range newListCmds(opts) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newSyncCmd(opts))
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrAlreadyHandled) {
			os.Exit(1)
		}
		jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
		if jsonOutput {
			printJSON(os.Stdout, map[string]string{"error": describeError(err)})
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		}
		os.Exit(1)
	}
}

// load reads the configuration and initializes logging.
func (o *options) load(cmd *cobra.Command) error {
	configFile := o.configFile
	if configFile == "" {
		configFile = os.Getenv(config.EnvConfigFile)
	}
	if configFile == "" {
		if path, err := GetDefaultConfigPath(); err == nil {
			if _, err := os.Stat(path); err == nil {
				configFile = path
			}
		}
	}

	cfg, err := config.LoadConfig(configFile, ".env")
	if err != nil {
		return err
	}
	if o.tenantID >= 0 {
		cfg.TenantID = o.tenantID
	}
	o.cfg = cfg
	logtrace.InitLogger(cfg.LogLevel)
	return nil
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of rostersync and of the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := map[string]string{"version": getCLIVersion()}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			v, compatible, err := a.serverVersion(cmd.Context())
			switch {
			case err != nil:
				info["server_api_version"] = "unavailable"
			case !compatible:
				info["server_api_version"] = v + " (unsupported)"
			default:
				info["server_api_version"] = v
			}

			switch opts.format() {
			case formatJSON:
				return printJSON(out, info)
			case formatYAML:
				return printYAML(out, info)
			}
			fmt.Fprintf(out, "rostersync CLI %s\n", info["version"])
			fmt.Fprintf(out, "Server API: %s\n", info["server_api_version"])
			return nil
		},
	}
}

// describeError adds the causes attached to an application error to its message.
func describeError(err error) string {
	var appErr apperrors.Error
	if errors.As(err, &appErr) && appErr.Error() == err.Error() {
		return appErr.ErrorAll()
	}
	return err.Error()
}

func getCLIVersion() string {
	return "v0.1.0"
}

func printOK(w io.Writer, format string, a ...any) {
	okLabel.Fprintf(w, format+"\n", a...)
}
