package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/config"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/discovery"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/rules"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/schema"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and list the loaded rule set",
	Long: `Rules loads the rule definition file, reports every rule that failed
validation, and lists the rules that are active.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	path := rulesPath
	if path == "" {
		path = cfg.RulesFile
	}
	path, err = discovery.ValidateFilePath(path)
	if err != nil {
		return fmt.Errorf("invalid rules file: %w", err)
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading rules file %s: %w", path, err)
	}

	validator := schema.NewValidator()
	if err := validator.LoadSchemas(); err != nil {
		validator = nil
	}

	loader := &rules.Loader{Validator: validator}
	ruleSet, records, err := loader.Load(doc)
	if err != nil {
		return err
	}

	for _, rec := range records {
		fmt.Fprintf(os.Stderr, "invalid rule: %s\n", rec.Message)
	}

	fmt.Printf("%d active rules (%d rejected)\n\n", ruleSet.Len(), len(records))
	for _, rule := range ruleSet.Rules() {
		fixable := "detection-only"
		if rule.Fixable() {
			fixable = "fixable"
		}
		fmt.Printf("  %-24s %-8s %-14s %v\n", rule.ID, rule.Severity, fixable, rule.FileTypes)
		if verbose && rule.Description != "" {
			fmt.Printf("      %s\n", rule.Description)
		}
	}

	if len(records) > 0 {
		os.Exit(1)
	}
	return nil
}
