package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jaki95/streampay/config"
	"github.com/jaki95/streampay/internal/crypt"
	"github.com/jaki95/streampay/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	maxWorkers := flag.Int("workers", 4, "Maximum concurrent encryption tasks")
	cid := flag.String("cid", "", "Content id to fetch and decrypt (get mode)")
	out := flag.String("out", "", "Output file for get mode (default stdout)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "  %s [flags] put FILE...\n  %s [flags] -cid CID [-out FILE] get\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	cipher, err := crypt.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	switch flag.Arg(0) {
	case "put":
		if flag.NArg() < 2 {
			log.Fatal("Missing files to seal")
		}
		results, err := sealFiles(ctx, cipher, store, flag.Args()[1:], *maxWorkers, newProgressBar(flag.NArg()-1))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		for _, r := range results {
			fmt.Printf("%s\t%s\tnonce=%s tag=%s\n", r.CID, r.Path, r.NonceHex, r.TagHex)
		}
	case "get":
		if *cid == "" {
			log.Fatal("Missing required flag: -cid")
		}
		data, err := openSealed(ctx, cipher, store, *cid)
		if err != nil {
			log.Fatal(err)
		}
		if *out == "" {
			os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}
