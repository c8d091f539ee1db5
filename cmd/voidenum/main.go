package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/felinux0x/voidenum/internal/utils"
	"github.com/felinux0x/voidenum/pkg/config"
	"github.com/felinux0x/voidenum/pkg/enum"
	"github.com/felinux0x/voidenum/pkg/subdomains"
	"github.com/felinux0x/voidenum/pkg/web"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "voidenum",
		Usage:   "Passive subdomain discovery from certificate transparency logs and threat intelligence APIs",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Target host",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "File with one target per line; each target is written to <target>.txt",
			},
			&cli.BoolFlag{
				Name:    "ip",
				Aliases: []string{"i"},
				Usage:   "Resolve every subdomain and append its IP address",
			},
			&cli.BoolFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to <target>.txt, backing up a previous file to <target>.old.txt",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file with API tokens",
			},
			&cli.StringFlag{
				Name:  "proxy",
				Usage: "Proxy URL for every HTTP source",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print results and errors",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print debug messages",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	utils.SetSilent(c.Bool("quiet"))
	utils.SetVerbose(c.Bool("verbose"))

	target := c.String("target")
	file := c.String("file")
	if target == "" && file == "" {
		return cli.ShowAppHelp(c)
	}
	if !c.Bool("quiet") {
		utils.PrintBanner()
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("can't load configuration: %w", err)
	}
	if p := c.String("proxy"); p != "" {
		cfg.Proxy = p
	}

	client, err := web.Shared(web.Options{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Proxy:   cfg.Proxy,
	})
	if err != nil {
		return fmt.Errorf("can't build the HTTP client: %w", err)
	}

	// Handle Ctrl+C so in-flight requests are abandoned
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := enum.New(subdomains.NewRunner(client, cfg))
	opts := enum.Options{
		WithIP:     c.Bool("ip"),
		WithOutput: c.Bool("output"),
	}

	if target != "" {
		opts.FileName = target + ".txt"
		return e.Run(ctx, target, opts)
	}
	return e.RunFile(ctx, file, opts)
}

// printErrorChain prints err and then every error it wraps.
func printErrorChain(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var walk func(error)
	walk = func(err error) {
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, cause := range u.Unwrap() {
				fmt.Fprintf(w, "Because: %v\n", cause)
				walk(cause)
			}
		default:
			if cause := errors.Unwrap(err); cause != nil {
				fmt.Fprintf(w, "Because: %v\n", cause)
				walk(cause)
			}
		}
	}
	walk(err)
}

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		printErrorChain(os.Stderr, err)
		os.Exit(1)
	}
}
