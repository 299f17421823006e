package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"dip-go/internal/app"
	"dip-go/internal/config"
	"dip-go/internal/manifest"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and opens the deposit package rooted at dir.
// The caller must defer a.Close().
func newApp(dir string, create bool) (*app.DIPApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewDIPApp(cfg, dir, create)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// loadConfig reads the config file named by the defaults. A missing
// config file is not an error; the defaults apply.
func loadConfig() (*config.Config, error) {
	defaults := app.GetDefaults()

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.NewConfig(defaults["log_dir"]), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	return cfg, nil
}

// shortHash abbreviates a content hash for column display. Hand-edited
// manifests may hold hashes shorter than the display width.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

var rootCmd = &cobra.Command{
	Use:   "dip",
	Short: "Track deposits of local files into repository endpoints",
}

// init command
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Initialize a deposit package",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if len(args) > 0 {
			dir = args[0]
		}

		a, err := newApp(dir, true)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Deposit package at %s\n", a.BaseDir())
		fmt.Printf("Created: %s\n", a.Created())
		return nil
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage tracked files",
}

var fileAddCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Register files for deposit tracking",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		total := 0
		for _, arg := range args {
			count, err := a.RegisterFiles(arg, recursive)
			if err != nil {
				return fmt.Errorf("registering %s: %w", arg, err)
			}
			total += count
		}

		fmt.Printf("Registered %d file(s)\n", total)
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Stop tracking a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.DeregisterFile(args[0])
		if err != nil {
			return fmt.Errorf("deregistering: %w", err)
		}
		if !removed {
			fmt.Printf("Not tracked: %s\n", args[0])
			return nil
		}

		fmt.Printf("Deregistered %s\n", args[0])
		return nil
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		files := a.ListFiles()
		if len(files) == 0 {
			fmt.Println("No files tracked.")
			return nil
		}

		for _, f := range files {
			fmt.Printf("%s  %s  %s\n", shortHash(f.ContentHash), f.UpdatedAt, f.Path)
		}
		return nil
	},
}

// endpoint command
var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage repository endpoints",
}

var endpointAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a repository endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		id, _ := cmd.Flags().GetString("id")
		sdIRI, _ := cmd.Flags().GetString("sd-iri")
		colIRI, _ := cmd.Flags().GetString("col-iri")
		pkg, _ := cmd.Flags().GetString("package")
		username, _ := cmd.Flags().GetString("username")
		obo, _ := cmd.Flags().GetString("obo")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.SetEndpoint(manifest.EndpointRecord{
			ID:                 id,
			ServiceDocumentURI: sdIRI,
			CollectionURI:      colIRI,
			PackageFormat:      pkg,
			Username:           username,
			OnBehalfOf:         obo,
		})
		if err != nil {
			return fmt.Errorf("registering endpoint: %w", err)
		}

		fmt.Printf("Registered endpoint %s (%s)\n", rec.ID, rec.ServiceDocumentURI)
		return nil
	},
}

var endpointRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a repository endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		deleteInRepo, _ := cmd.Flags().GetBool("delete-in-repository")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveEndpoint(args[0], deleteInRepo)
		if err != nil {
			return fmt.Errorf("removing endpoint: %w", err)
		}
		if !removed {
			fmt.Printf("No such endpoint: %s\n", args[0])
			return nil
		}

		fmt.Printf("Removed endpoint %s\n", args[0])
		return nil
	},
}

var endpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repository endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		endpoints := a.ListEndpoints()
		if len(endpoints) == 0 {
			fmt.Println("No endpoints registered.")
			return nil
		}

		for _, ep := range endpoints {
			col := ep.CollectionURI
			if col == "" {
				col = "-"
			}
			fmt.Printf("%-12s  %-10s  %s  %s\n", ep.ID, ep.PackageFormat, ep.ServiceDocumentURI, col)
		}
		return nil
	},
}

// mark command
var markCmd = &cobra.Command{
	Use:   "mark PATH ENDPOINT_ID",
	Short: "Record a completed deposit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		atStr, _ := cmd.Flags().GetString("at")

		var at time.Time
		if atStr != "" {
			ts, err := manifest.Parse(atStr)
			if err != nil {
				return fmt.Errorf("parsing --at: %w", err)
			}
			at = ts.Time()
		}

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.MarkDeposited(args[0], args[1], at)
		if err != nil {
			return fmt.Errorf("marking deposit: %w", err)
		}

		dep, _ := rec.Deposit(args[1])
		fmt.Printf("Marked %s deposited to %s at %s\n", rec.Path, args[1], dep.LastDeposit)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status [DIR]",
	Short: "Show sync state of tracked files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if len(args) > 0 {
			dir = args[0]
		}

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		states, err := a.Status()
		if err != nil {
			return err
		}

		if len(states) == 0 {
			fmt.Println("No files tracked.")
			return nil
		}

		for _, s := range states {
			endpoint := "-"
			if s.Endpoint != nil {
				endpoint = s.Endpoint.ID
			}
			fmt.Printf("%-13s  %-12s  %s\n", s.State, endpoint, s.File.Path)
		}
		return nil
	},
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show deposit package details",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(dir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Base Dir:  %s\n", a.BaseDir())
		fmt.Printf("Created:   %s\n", a.Created())
		fmt.Printf("Files:     %d\n", len(a.ListFiles()))
		fmt.Printf("Endpoints: %d\n", len(a.ListEndpoints()))

		if md := a.Metadata(); len(md) > 0 {
			fmt.Println("\nMetadata:")
			for _, m := range md {
				fmt.Printf("  %-8s  %s  %s\n", m.Format, m.ModifiedAt, m.Path)
			}
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := app.GetDefaults()

		cfg := config.NewConfig(defaults["log_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Log Dir: %s\n", defaults["log_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := app.GetDefaults()

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Username:     %s\n", cfg.Endpoint.Username)
		fmt.Printf("On Behalf Of: %s\n", cfg.Endpoint.OnBehalfOf)
		fmt.Printf("Package:      %s\n", cfg.Endpoint.PackageFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Deposit package directory")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// file subcommands
	fileCmd.AddCommand(fileAddCmd)
	fileAddCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	fileCmd.AddCommand(fileRmCmd)
	fileCmd.AddCommand(fileListCmd)

	// endpoint subcommands
	endpointCmd.AddCommand(endpointAddCmd)
	endpointAddCmd.Flags().String("id", "", "Endpoint ID (generated when empty)")
	endpointAddCmd.Flags().String("sd-iri", "", "Service document IRI")
	endpointAddCmd.Flags().String("col-iri", "", "Collection IRI")
	endpointAddCmd.Flags().String("package", "", "Packaging format identifier")
	endpointAddCmd.Flags().String("username", "", "Deposit username")
	endpointAddCmd.Flags().String("obo", "", "On-behalf-of user")
	endpointCmd.AddCommand(endpointRmCmd)
	endpointRmCmd.Flags().Bool("delete-in-repository", false, "Also delete deposited content in the repository")
	endpointCmd.AddCommand(endpointListCmd)

	// root commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(endpointCmd)
	rootCmd.AddCommand(markCmd)
	markCmd.Flags().String("at", "", "Deposit timestamp (e.g. 2025-08-25T10:30:00Z, default now)")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)
}
