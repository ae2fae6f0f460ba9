package main

import (
	"log"
	"os"

	"github.com/studytrack/studytrack/apps/shared"
	"github.com/studytrack/studytrack/core"
)

func main() {
	conf := core.NewConfig()

	logger := shared.NewLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false) // CLI errors are printed, not reported

	mailSvc, err := shared.NewEmailService(conf, logger)
	if err != nil {
		logger.Fatal("setting up email service", err)
	}

	// start CLI
	cli := commandLine{
		svcs: shared.NewServices(conf, logger, mailSvc),
		out:  os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
