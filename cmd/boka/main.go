package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/maltehallstrom/boka/internal/api"
	"github.com/maltehallstrom/boka/internal/cli"
	"github.com/maltehallstrom/boka/internal/constants"
	apperrors "github.com/maltehallstrom/boka/internal/errors"
	"github.com/maltehallstrom/boka/internal/logger"
	"github.com/maltehallstrom/boka/internal/prefs"
	"github.com/maltehallstrom/boka/internal/sandbox"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Preferences database path." type:"path" default:"~/.config/boka/boka.db"`
	APIBase string `help:"Base URL of the booking backend." name:"api-base" default:"http://localhost:5000"`
	Sandbox bool   `help:"Run against a local seeded backend instead of the network."`
	Debug   bool   `help:"Verbose logging to stderr."`

	Kiosk      cli.KioskCmd  `cmd:"" help:"Launch the booking kiosk." default:"1"`
	Doctor     cli.DoctorCmd `cmd:"" help:"Run health diagnostics."`
	Credential struct {
		Set   cli.CredentialSetCmd   `cmd:"" help:"Store the self-service credential in the system keyring."`
		Clear cli.CredentialClearCmd `cmd:"" help:"Remove the stored credential."`
	} `cmd:"" help:"Manage the stored credential."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Shared-resource booking kiosk"),
		kong.UsageOnError(),
		kong.Vars{"version": constants.Version},
	)

	configPath := cli.ExpandPath(CLI.Config)
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		apperrors.Fatal(err)
	}

	store := prefs.NewStore(configPath)
	if err := store.Open(); err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	var client api.Client
	if CLI.Sandbox {
		backend, err := sandbox.Open(filepath.Join(configDir, "sandbox.db"))
		if err != nil {
			apperrors.Fatal(err)
		}
		defer backend.Close()
		client = backend
	} else {
		httpClient, err := api.NewHTTPClient(CLI.APIBase)
		if err != nil {
			apperrors.Fatal(err)
		}
		client = httpClient
	}

	appCtx := &cli.Context{
		Client:     client,
		Prefs:      store,
		ConfigPath: configPath,
		Sandbox:    CLI.Sandbox,
		Debug:      CLI.Debug,
	}

	if err := ctx.Run(appCtx); err != nil {
		apperrors.Fatal(err)
	}
}
