package main

import (
	"os"

	"mlinfer/config"
	"mlinfer/lambda"
	"mlinfer/logger"
)

func main() {
	handler, err := lambda.Setup(config.DefaultPath)
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	handler.Start()
}
