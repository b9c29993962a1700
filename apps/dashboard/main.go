package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/tododesk/core"
	apisvc "github.com/trezcool/tododesk/services/api"
	logsvc "github.com/trezcool/tododesk/services/logger"
	boltstore "github.com/trezcool/tododesk/storage/session/bolt"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "TODODESK : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the session store
	kv, err := boltstore.Open(conf.Session.StorePath)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session store: %v", err), err)
	}

	client, err := apisvc.NewClient(conf, logger)
	if err != nil {
		_ = kv.Close()
		logger.Fatal(fmt.Sprintf("setting up API client: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		conf:   conf,
		logger: logger,
		client: client,
		kv:     kv,
		out:    os.Stdout,
	}
	cli.serve = cli.startServer

	err = cli.run(os.Args)
	if cErr := kv.Close(); cErr != nil {
		logger.Error("Failed to close session store", cErr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
