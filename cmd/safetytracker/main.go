package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/safetytracker/safetytracker/cmd/safetytracker/commands"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	root := commands.GetRootCmd()
	root.AddCommand(commands.NewServeCommand())
	root.AddCommand(commands.NewMigrateCommand())
	root.AddCommand(commands.NewCreateProfilesCommand())
	root.AddCommand(commands.NewSetRoleCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
