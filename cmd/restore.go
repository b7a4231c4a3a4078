package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/config"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/fix"
)

var restoreBackupDir string

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore files from backup artifacts",
	Long: `Restore reads the session manifests in the backup directory and copies
every backup artifact back over its original file. Restoring is
partial-failure tolerant: one missing backup does not block the rest.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreBackupDir, "backup-dir", "", "Directory holding backup artifacts")

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	dir := restoreBackupDir
	if dir == "" {
		dir = cfg.Backup.Dir
	}

	records, err := fix.LoadManifests(dir)
	if err != nil {
		return err
	}

	res := fix.RestorePaths(records)
	fmt.Printf("%d file(s) restored\n", res.FilesRestored)
	for _, rec := range res.Errors {
		fmt.Fprintf(os.Stderr, "restore failed: %s\n", rec.Message)
	}
	if len(res.Errors) > 0 {
		os.Exit(1)
	}
	return nil
}
