package main

import (
	"github.com/sirupsen/logrus"

	"github.com/xLucasGitHubx/messagerie-api/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
