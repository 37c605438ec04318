package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/you/nosmoke/pkg/client"
)

var CLI struct {
	Version kong.VersionFlag
	API     string        `help:"API base URL." env:"NOSMOKE_API" default:"http://localhost:8080"`
	Token   string        `help:"Bearer token from login." env:"NOSMOKE_TOKEN"`
	Timeout time.Duration `help:"Request timeout." default:"15s"`

	Login        LoginCmd        `cmd:"" help:"Log in and print an access token."`
	Checkin      CheckinCmd      `cmd:"" help:"Record today's (or a given day's) check-in."`
	Progress     ProgressCmd     `cmd:"" help:"List check-ins for a plan."`
	Stats        StatsCmd        `cmd:"" help:"Show savings, streak and milestones."`
	Availability AvailabilityCmd `cmd:"" help:"Show a coach's open slots."`
	Book         BookCmd         `cmd:"" help:"Book an appointment with a coach."`
}

// Context is passed to every command's Run.
type Context struct {
	Ctx    context.Context
	Client *client.Client
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("nosmokectl"),
		kong.Description("Command-line client for the NoSmoke API"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), CLI.Timeout)
	defer cancel()

	app := &Context{
		Ctx:    ctx,
		Client: client.New(CLI.API, client.WithToken(CLI.Token)),
	}
	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
