package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsvensson/docspace/internal/dirconfig"
	"github.com/jsvensson/docspace/internal/format"
	"github.com/jsvensson/docspace/internal/lsp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var version = "dev" // Injected at build time via ldflags

var errUnformatted = errors.New("files need formatting")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docspace",
		Short:         "Coordinate open documents, their editors and per-directory config",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newConfigCmd(), newFmtCmd(), newVersionCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var (
		logFile         string
		verbosity       int
		detectDeadlocks bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lsp.DetectDeadlocks(detectDeadlocks)

			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbosity, path)

			return lsp.NewServer(version).Run()
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (can be repeated)")
	cmd.Flags().BoolVar(&detectDeadlocks, "detect-deadlocks", false, "report lock-order problems and stuck locks")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config DIR...",
		Short: "Print the resolved config for each directory",
		Long:  "Print the config that applies to each directory as a YAML stream, one document per directory.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgs, err := dirconfig.LoadAll(cmd.Context(), dirconfig.NewCache(nil), args)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			for _, cfg := range cfgs {
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("encoding %s: %w", cfg.Directory, err)
				}
			}
			return enc.Close()
		},
	}
}

func newFmtCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Format HCL files",
		Long:  "Format one or more HCL files in-place using the config of each file's directory. Prints the name of each file that was modified.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, check)
		},
	}
	cmd.Flags().BoolVarP(&check, "check", "c", false, "check if files are formatted (do not write changes)")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string, check bool) error {
	configs := dirconfig.NewCache(nil)
	var errs []error
	needsFormatting := false

	for _, path := range args {
		cfg, err := configs.Load(filepath.Dir(path))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}

		content := string(data)
		formatted := format.Format(content, cfg.Format)
		if formatted == content {
			continue
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		needsFormatting = true

		if !check {
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				errs = append(errs, fmt.Errorf("writing %s: %w", path, err))
			}
		}
	}

	if check && needsFormatting {
		errs = append(errs, errUnformatted)
	}
	return errors.Join(errs...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
