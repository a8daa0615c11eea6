package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chiptable/cmd"
	"chiptable/database"

	log "github.com/sirupsen/logrus"
)

const usage = "usage: chiptable [migrate up|down [steps]|status]"

func main() {
	if len(os.Args) > 1 {
		if os.Args[1] != "migrate" {
			log.Fatal(usage)
		}
		if err := runMigration(os.Args[2:]); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal drains the settlement worker, a second one exits at once
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("Stopping chiptable, send again to force exit")
		cancel()
		<-sigChan
		log.Warn("Forced exit before settlement worker drained")
		os.Exit(1)
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func runMigration(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		status, err := database.MigrateStatus()
		if err != nil {
			return err
		}
		fields := log.Fields{
			"applied": status.Applied,
			"latest":  status.Latest,
			"pending": status.Pending,
		}
		switch {
		case status.Dirty:
			log.WithFields(fields).Warn("Schema is dirty, fix the failed migration and force its version")
		case len(status.Pending) > 0:
			log.WithFields(fields).Info("Schema is behind, run chiptable migrate up")
		default:
			log.WithFields(fields).Info("Schema is up to date")
		}
		return nil
	default:
		return fmt.Errorf("unknown migration command %q; %s", args[0], usage)
	}
}
