package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/analyzer"
	"github.com/apk-risk/apk-risk-go/internal/classifier"
	"github.com/apk-risk/apk-risk-go/internal/config"
	"github.com/apk-risk/apk-risk-go/internal/reputation"
	"github.com/apk-risk/apk-risk-go/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	trustFile     string
	vtAPIKey      string
	classifierURL string
	logLevel      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apkrisk",
		Short: "APK static risk analysis toolkit",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <apk>",
		Short: "Analyze a single APK and print the risk report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&trustFile, "trust", "./data/trusted_bank_data.json", "trusted bank data file")
	analyzeCmd.Flags().StringVar(&vtAPIKey, "vt-key", "", "VirusTotal API key (enables reputation lookup)")
	analyzeCmd.Flags().StringVar(&classifierURL, "classifier", "", "classifier server URL (enables model scoring)")
	analyzeCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := config.InitLogger(&config.LogConfig{Level: logLevel, Format: "text"})
	// CLI 输出走标准输出，日志走标准错误
	logger.SetOutput(os.Stderr)
	logger.SetReportCaller(false)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	apkAnalyzer := analyzer.New(logger, trustFile)

	var vt service.ReputationLookup
	if vtAPIKey != "" {
		vt = reputation.NewVirusTotalClient("", vtAPIKey, 15*time.Second, logger)
	}

	predictor := classifier.NewClient(classifierURL, classifierURL != "", 30*time.Second, logger)

	svc := service.NewAnalysisService(logger, apkAnalyzer, vt, nil, predictor)

	report, err := svc.AnalyzeAPK(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
