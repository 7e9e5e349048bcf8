package main

import (
	"BotSpectra/pkg/pcap"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

func main() {
	outPath := flag.String("o", "", "Output CSV path (default: stdout)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-o out.csv] <capture.pcap|capture.pcapng>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	records, err := pcap.Convert(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to convert '%s': %v", flag.Arg(0), err)
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	if err := pcap.WriteCSV(w, records); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}
	log.Printf("Wrote %d flow records.", len(records))
}
