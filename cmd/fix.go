package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/config"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/migrate"
)

var (
	fixDryRun          bool
	fixNoBackup        bool
	fixBackupDir       string
	fixContinueOnError bool
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply rule replacements to matching files",
	Long: `Fix scans the source tree, then rewrites every fixable finding by
applying each rule's replacement as one global substitution per file.

Each modified file is backed up before its first write; a critical
failure rolls the whole session back. Use --dry-run to preview the
changes without touching any file.`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Compute fix counts without writing any file or backup")
	fixCmd.Flags().BoolVar(&fixNoBackup, "no-backup", false, "Skip per-file backups (rollback becomes impossible)")
	fixCmd.Flags().StringVar(&fixBackupDir, "backup-dir", "", "Directory for backup artifacts")
	fixCmd.Flags().BoolVar(&fixContinueOnError, "continue-on-error", true, "Record per-file errors and keep going instead of aborting")

	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	cfg.ContinueOnError = fixContinueOnError
	if fixBackupDir != "" {
		cfg.Backup.Dir = fixBackupDir
	}

	orch := migrate.NewOrchestrator(cfg, migrate.Options{
		RulesPath:    rulesPath,
		Fix:          true,
		DryRun:       fixDryRun,
		NoBackup:     fixNoBackup,
		UseBaseline:  useBaseline,
		BaselinePath: baselinePath,
	})
	result, err := orch.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if result.HasErrors {
		os.Exit(1)
	}
	return nil
}
