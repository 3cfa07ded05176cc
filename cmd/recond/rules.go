/*
rules.go - rule configuration management commands

USAGE:
  recond rules list                          # presets and saved sets
  recond rules export advance-exchange       # preset or saved set to stdout
  recond rules export myteam --out rules.json
  recond rules import rules.json --name myteam
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syncops/recon-engine/factory"
	"github.com/syncops/recon-engine/store/sqlite"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rule configurations",
	}
	cmd.AddCommand(newRulesListCmd(), newRulesExportCmd(), newRulesImportCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shipped presets and saved rule sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range []string{"advance-exchange", "generic-lifecycle"} {
				cfg, err := factory.ByName(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-24s %d rules\n", name, len(cfg.Rules))
			}

			store, err := sqlite.New(viper.GetString("db"))
			if err != nil {
				return err
			}
			defer store.Close()
			sets, err := store.ListRuleSets(context.Background())
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				return nil
			}
			fmt.Println("saved:")
			for _, rs := range sets {
				fmt.Printf("  %-24s %-20s updated %s\n",
					rs.Name, rs.Version, rs.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newRulesExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <preset-or-set>",
		Short: "Export a rule configuration as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := exportConfig(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Println(string(raw))
				return nil
			}
			return os.WriteFile(outPath, raw, 0o644)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file instead of stdout")
	return cmd
}

// exportConfig resolves a preset name first, then a saved set from
// the database.
func exportConfig(name string) ([]byte, error) {
	if cfg, err := factory.ByName(name); err == nil {
		return json.MarshalIndent(cfg, "", "  ")
	}

	store, err := sqlite.New(viper.GetString("db"))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	rs, err := store.LoadRuleSet(context.Background(), name)
	if err != nil {
		return nil, err
	}
	var cfg factory.Config
	if err := json.Unmarshal([]byte(rs.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("rule set %q is corrupt: %w", name, err)
	}
	return json.MarshalIndent(&cfg, "", "  ")
}

func newRulesImportCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a config file and save it as a named rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var cfg factory.Config
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			tables, err := cfg.Build()
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
				name = name[:len(name)-len(filepath.Ext(name))]
			}

			store, err := sqlite.New(viper.GetString("db"))
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SaveRuleSet(context.Background(), name, tables.Version, string(raw)); err != nil {
				return err
			}
			fmt.Printf("saved rule set %q (%d rules)\n", name, tables.Rules.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name to save under (default: file name)")
	return cmd
}
