package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal/inspect"
)

var consoleCmd = &cli.Command{
	Name:  "console",
	Usage: "Attach a remote console to a running server",
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			inspect.ProvideRemoteConsole(),
		)
	},
}
