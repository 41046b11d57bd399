package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/NicolasHaas/goshop/pkg/api"
	"github.com/NicolasHaas/goshop/pkg/client"
	"github.com/NicolasHaas/goshop/pkg/config"
	"github.com/NicolasHaas/goshop/pkg/crypto"
	"github.com/NicolasHaas/goshop/pkg/datastore"
	"github.com/NicolasHaas/goshop/pkg/logging"
	"github.com/NicolasHaas/goshop/pkg/session"
	"github.com/NicolasHaas/goshop/pkg/version"
)

const usage = `usage: goshop [flags] <command> [args]

commands:
  login -email E -password P     sign in and remember the session
  logout                         forget the session
  signup -email E ...            register a new account
  whoami                         show the signed-in user
  products [-category B] [-search Q] [-sort S]
  categories                     list category buckets
  product <id>                   show one product
  add-product -name N ...        create a product (admin)
  modify-product <id> ...        change a product (admin)
  delete-product <id>            remove a product (admin)
  order <productID> [-qty N]     place an order interactively
  route <path>                   show where a page would take you
  shops [-add NAME -url URL]     list or save storefront endpoints
  config [-save]                 print (or save) the effective settings
  version                        print the version

flags:
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "goshop:", client.UserMessage(err))
		}
		stop()
		os.Exit(1)
	}
}

// logOutput receives all log lines.
var logOutput io.Writer = os.Stderr

// bootLogging installs a logger from GOSHOP_* variables and the log flags
// so warnings raised while reading config files already honour them. The
// logger is replaced once the full config is known.
func bootLogging(level, format string) {
	boot := config.Default()
	boot.ApplyEnv(os.LookupEnv)
	if level != "" {
		boot.LogLevel = level
	}
	if format != "" {
		boot.LogFormat = format
	}
	if err := logging.Setup(logging.Options{Level: boot.LogLevel, Format: boot.LogFormat, Output: logOutput}); err != nil {
		_ = logging.Setup(logging.Options{Output: logOutput})
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("goshop", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML settings file (default: goshop.yaml next to the binary)")
	envFile := fs.String("env-file", ".env", "dotenv file with GOSHOP_* variables")
	apiURL := fs.String("api", "", "storefront API root, e.g. https://shop.example.com/api")
	dataDir := fs.String("data", "", "directory for the session database")
	logLevel := fs.String("log-level", "", "Log level: "+logging.LevelNames())
	logFormat := fs.String("log-format", "", "Log format: text or json")
	timeout := fs.Duration("timeout", 0, "HTTP request timeout")
	shopName := fs.String("shop", "", "saved shop to use (see the shops command)")
	stats := fs.Bool("stats", false, "print API request counters when done")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	dotErr := config.LoadDotEnv(*envFile)
	bootLogging(*logLevel, *logFormat)
	if dotErr != nil {
		slog.Warn("load env file", "path", *envFile, "err", dotErr)
	}
	cfg := config.Load(*configPath)

	shops := config.NewShopStore(cfg.ShopsPath())
	if err := shops.Load(); err != nil {
		slog.Warn("load shops", "path", cfg.ShopsPath(), "err", err)
	}
	if *shopName != "" {
		shop, err := shops.Find(*shopName)
		if err != nil {
			return err
		}
		cfg.APIURL = shop.APIURL
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.APIURL = *apiURL
		case "data":
			cfg.DataDir = *dataDir
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "timeout":
			cfg.Timeout = *timeout
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: logOutput,
	}); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}
	name, cmdArgs := rest[0], rest[1:]

	switch name {
	case "version":
		fmt.Fprintln(out, "goshop", version.Full())
		return nil
	case "config":
		return cmdConfig(cfg, cmdArgs, out)
	case "shops":
		return cmdShops(shops, cmdArgs, out)
	}

	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	sf, backend, closeFn, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	err = cmd(ctx, &env{sf: sf, in: in, out: out, shops: shops, shop: *shopName}, cmdArgs)
	backend.Metrics().LogSummary()
	if *stats {
		fmt.Fprintln(os.Stderr, backend.Metrics().JSON())
	}
	return err
}

// open builds the storefront from settings and restores the saved session.
func open(ctx context.Context, cfg *config.Config) (*client.Storefront, *api.Client, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	kv, err := datastore.NewSQLite(cfg.SessionPath())
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := kv.Close(); err != nil {
			slog.Warn("close session store", "err", err)
		}
	}

	var opts []session.Option
	if cfg.Secret != "" {
		method, err := crypto.ParseMethod(cfg.SealMethod)
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		sealer, err := crypto.NewSealer(method, cfg.Secret)
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		opts = append(opts, session.WithSealer(sealer))
	}

	base, err := cfg.BaseURL()
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	backend := api.NewClient(&http.Client{Timeout: cfg.Timeout}, base)

	sf := client.New(backend, session.New(kv, opts...))
	sf.Start(ctx)
	slog.Debug("storefront ready", "api", cfg.APIURL, "session_db", cfg.SessionPath(), "sealed", cfg.Secret != "")
	return sf, backend, closeFn, nil
}

func cmdConfig(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	save := fs.Bool("save", false, "write the effective settings to the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *save {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintln(out, "saved", cfg.Path())
		return nil
	}
	fmt.Fprintf(out, "config:      %s\n", cfg.Path())
	fmt.Fprintf(out, "api_url:     %s\n", cfg.APIURL)
	fmt.Fprintf(out, "data_dir:    %s\n", cfg.DataDir)
	fmt.Fprintf(out, "log_level:   %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "log_format:  %s\n", cfg.LogFormat)
	fmt.Fprintf(out, "timeout:     %s\n", cfg.Timeout)
	fmt.Fprintf(out, "token_seal:  %t\n", cfg.Secret != "")
	return nil
}

func cmdShops(shops *config.ShopStore, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("shops", flag.ContinueOnError)
	add := fs.String("add", "", "name of a shop to save")
	apiURL := fs.String("url", "", "API root of the shop to save")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *add != "" {
		added, err := shops.Add(config.Shop{Name: *add, APIURL: *apiURL})
		if err != nil {
			return err
		}
		if err := shops.Save(); err != nil {
			return fmt.Errorf("save shops: %w", err)
		}
		if added {
			fmt.Fprintf(out, "Saved shop %s.\n", *add)
		} else {
			fmt.Fprintf(out, "Updated shop %s.\n", *add)
		}
		return nil
	}

	list := shops.Sorted()
	if len(list) == 0 {
		fmt.Fprintln(out, "No saved shops. Add one with: goshop shops -add NAME -url URL")
		return nil
	}
	for _, s := range list {
		fmt.Fprintf(out, "%-16s %s", s.Name, s.APIURL)
		if s.Email != "" {
			fmt.Fprintf(out, "  (%s)", s.Email)
		}
		fmt.Fprintln(out)
	}
	return nil
}
