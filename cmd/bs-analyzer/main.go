package main

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/engine/classifier"
	"BotSpectra/internal/engine/manager"
	"BotSpectra/internal/engine/processor"
	"BotSpectra/internal/export"
	"BotSpectra/internal/model"
	"BotSpectra/internal/notification"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	threshold := flag.Int("threshold", 0, "Confidence threshold 0-100 (default: from config)")
	exportFormat := flag.String("export", "", "Export results as 'json' or 'csv'")
	outPath := flag.String("out", "", "Export file path (default: botnet-analysis-<ms>.<ext>)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <traffic.csv|traffic.json>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	filePath := flag.Arg(0)

	var format export.Format
	if *exportFormat != "" {
		f, err := export.ParseFormat(*exportFormat)
		if err != nil {
			log.Fatalf("Invalid -export: %v", err)
		}
		format = f
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize modules
	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	clf, err := classifier.New(cfg.Classifier, rnd)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	notifier, closeNotifier, err := notification.New(cfg.Notifier)
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}
	defer closeNotifier()

	mgr, err := manager.NewManager(cfg, processor.New(clf, rnd), notifier, nil)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}
	mgr.OnChange(func(s manager.State) {
		if s.Processing && s.CurrentStep != "" {
			fmt.Printf("[%3d%%] %s\n", s.Progress, s.CurrentStep)
		}
	})

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("Failed to read '%s': %v", filePath, err)
	}

	// 3. Run the analysis; Ctrl-C cancels it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	up := manager.Upload{Name: filepath.Base(filePath), Data: data}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			up.Threshold = threshold
		}
	})
	state, err := mgr.Run(ctx, up)
	if err != nil {
		closeNotifier()
		log.Fatalf("Analysis failed: %v", err)
	}

	s := state.Stats
	fmt.Printf("\nAnalyzed %d records with %s (threshold %d%%)\n", state.TotalRecords, clf.Name(), state.Threshold)
	fmt.Printf("  Devices:          %d\n", s.TotalDevices)
	fmt.Printf("  Threats blocked:  %d\n", s.ThreatsBlocked)
	fmt.Printf("  Under monitoring: %d\n", s.UnderMonitoring)
	fmt.Printf("  Clean:            %d\n", s.CleanDevices)
	fmt.Printf("  Processing time:  %d ms\n", s.ProcessingTime)
	fmt.Printf("  Accuracy:         %.1f%%\n", s.Accuracy)
	for _, r := range state.Results {
		if r.Status == model.StatusSafe {
			continue
		}
		fmt.Printf("  %-10s %-22s %-26s %3d%% %s\n", r.Status, r.Device, r.Threat, r.Confidence, r.ID)
	}

	// 4. Export
	if format == "" {
		return
	}
	analysis, err := mgr.Analysis()
	if err != nil {
		log.Printf("Nothing to export: %v", err)
		return
	}
	if *outPath == "" {
		*outPath = export.Filename(format, time.Now())
	}
	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create '%s': %v", *outPath, err)
	}
	defer f.Close()
	if err := export.Write(f, format, analysis); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	log.Printf("Results exported to %s", *outPath)
}
