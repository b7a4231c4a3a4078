package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/config"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/migrate"
)

var (
	rootPath       string
	rulesPath      string
	quiet          bool
	verbose        bool
	outputFormat   string
	outputFile     string
	failOn         string
	useBaseline    bool
	createBaseline bool
	baselinePath   string
)

var rootCmd = &cobra.Command{
	Use:   "codemigrate",
	Short: "Codemigrate - detect and rewrite deprecated code patterns",
	Long: `Codemigrate scans a source tree for deprecated code patterns using
user-supplied regular-expression rules, reports each match with its
position, and can rewrite matches in place with per-file backups.

By default codemigrate only scans and reports. Use "codemigrate fix"
to apply the rewrites.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScan(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "Source tree root directory (defaults to the current directory)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to the rule definition file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "console", "Output format for reports (console|json|markdown)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file for reports (requires --format)")
	rootCmd.PersistentFlags().StringVar(&failOn, "fail-on", "error", "Fail build on specified level (error|warning|info)")
	rootCmd.PersistentFlags().BoolVar(&useBaseline, "baseline", false, "Ignore findings recorded in the baseline file")
	rootCmd.PersistentFlags().BoolVar(&createBaseline, "create-baseline", false, "Record current findings as the baseline and exit")
	rootCmd.PersistentFlags().StringVar(&baselinePath, "baseline-file", "", "Baseline file location")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("rulesFile", rootCmd.PersistentFlags().Lookup("rules"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("failOn", rootCmd.PersistentFlags().Lookup("fail-on"))
}

func initConfig() {
	configPaths := []string{".codemigraterc.json", ".codemigraterc.yaml", ".codemigraterc.yml"}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				os.Exit(2)
			}
			break
		}
	}
}

func runScan() error {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	orch := migrate.NewOrchestrator(cfg, migrate.Options{
		RulesPath:      rulesPath,
		UseBaseline:    useBaseline,
		CreateBaseline: createBaseline,
		BaselinePath:   baselinePath,
	})
	result, err := orch.Run(context.Background())
	if err != nil {
		return err
	}
	if result.HasErrors {
		os.Exit(1)
	}
	return nil
}
