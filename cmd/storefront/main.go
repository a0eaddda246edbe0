package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/luxejewel-storefront/internal/apiclient"
	cartsvc "github.com/example/luxejewel-storefront/internal/cart"
	"github.com/example/luxejewel-storefront/internal/catalog"
	"github.com/example/luxejewel-storefront/internal/config"
	"github.com/example/luxejewel-storefront/internal/orders"
	"github.com/example/luxejewel-storefront/internal/session"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// storefront holds the services every command shares. It is filled in by setup.
type storefront struct {
	cfg     *config.Storefront
	log     *log.Logger
	client  *apiclient.Client
	session *session.Session
	cart    *cartsvc.Service
	catalog *catalog.Browser
	orders  *orders.History

	in  *bufio.Reader
	out io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sf := &storefront{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	app := &cli.App{
		Name:  "storefront",
		Usage: "LuxeJewel storefront",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log requests and checkout transitions"},
		},
		Before: sf.setup,
		Commands: []*cli.Command{
			sf.loginCommand(),
			sf.registerCommand(),
			sf.logoutCommand(),
			sf.whoamiCommand(),
			sf.productsCommand(),
			sf.productCommand(),
			sf.categoriesCommand(),
			sf.cartCommand(),
			sf.checkoutCommand(),
			sf.ordersCommand(),
			sf.adminCommand(),
			sf.journalCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, notification(err))
		os.Exit(1)
	}
}

func (sf *storefront) setup(c *cli.Context) error {
	config.LoadDotEnv()
	cfg, err := config.LoadStorefront()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level := cfg.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	logger, err := config.NewLogger(level, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}
	logger.SetOutput(os.Stderr)

	client := apiclient.NewClient(cfg.APIURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithLogger(logger),
	)
	sess := session.New(client, session.NewFileStore(cfg.SessionFile), logger)
	client.SetTokenSource(sess)
	sess.Restore()

	carts := cartsvc.NewService(client, sess, logger)
	sess.Subscribe(carts)

	sf.cfg = cfg
	sf.log = logger
	sf.client = client
	sf.session = sess
	sf.cart = carts
	sf.catalog = catalog.NewBrowser(client)
	sf.orders = orders.NewHistory(client, sess)
	return nil
}
