package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/nsid/wallet/credentials"
	"github.com/nsid/wallet/gateway"
	"github.com/nsid/wallet/internal/config"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/wallet"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", friendlyMessage(err))
		os.Exit(1)
	}
}

type app struct {
	cfg        config.Config
	log        zerolog.Logger
	store      *session.FileStore
	controller *wallet.Controller
	records    *credentials.Service
	gw         *gateway.Client
}

func run(args []string) error {
	global := flag.NewFlagSet("wallet", flag.ExitOnError)
	configFile := global.String("config", "", "path to a YAML config file")
	global.Usage = usage
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage()
		return errors.New("a command is required")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.store.Close()

	ctx := context.Background()
	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "quick-login":
		return a.quickLogin(ctx)
	case "logout":
		return a.logout()
	case "status":
		return a.status()
	case "userinfo":
		return a.userInfo(ctx)
	case "license":
		return a.record(ctx, credentials.KindDriversLicense, rest)
	case "health":
		return a.record(ctx, credentials.KindHealthCard, rest)
	case "transit":
		return a.record(ctx, credentials.KindTransitPass, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func newApp(cfg config.Config) (*app, error) {
	log := newLogger(cfg)
	store, err := session.NewFileStore(cfg.GetDataDir())
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(cfg, store, gateway.WithLogger(log))
	if err != nil {
		return nil, err
	}
	controller, err := wallet.New(gw, store, wallet.WithLogger(log))
	if err != nil {
		return nil, err
	}
	records, err := credentials.NewService(gw, store, credentials.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, store: store, controller: controller, records: records, gw: gw}, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	firstName := fs.String("first", "", "first name")
	lastName := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.controller.Register(ctx, *email, *password, *firstName, *lastName); err != nil {
		return err
	}
	fmt.Printf("Registered %s. You can now log in.\n", *email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	remember := fs.Bool("remember", false, "save credentials for quick-login")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		s   *session.Session
		err error
	)
	if *remember {
		s, err = a.controller.LoginAndRemember(ctx, *email, *password)
	} else {
		s, err = a.controller.Login(ctx, *email, *password)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Welcome back, %s %s.\n", s.FirstName, s.LastName)
	return nil
}

func (a *app) quickLogin(ctx context.Context) error {
	s, err := a.controller.QuickLogin(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome back, %s %s.\n", s.FirstName, s.LastName)
	return nil
}

func (a *app) logout() error {
	if err := a.controller.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) status() error {
	displayAppName(a.cfg.GetAppName())
	if !a.controller.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	s, err := a.controller.CurrentSession()
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s <%s>\n", s.FirstName, s.LastName, s.Email)
	if expiresAt, err := a.gw.SessionExpiresAt(); err == nil {
		fmt.Printf("Access token expires at %s\n", expiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *app) userInfo(ctx context.Context) error {
	info, err := a.controller.UserInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s>\n", info.User.FirstName, info.User.LastName, info.User.Email)
	if info.DriverLicense != nil {
		fmt.Printf("  Driver's license: %s (%s, expires %s)\n",
			info.DriverLicense.LicenseNumber, info.DriverLicense.Province, info.DriverLicense.ExpirationDate)
	}
	if info.HealthCard != nil {
		fmt.Printf("  Health card:      %s (%s, expires %s)\n",
			info.HealthCard.CardNumber, info.HealthCard.Province, info.HealthCard.ExpirationDate)
	}
	if info.TransitCard != nil {
		fmt.Printf("  Transit pass:     %s (balance $%s, expires %s)\n",
			info.TransitCard.CardNumber, info.TransitCard.Balance, info.TransitCard.ExpirationDate)
	}
	return nil
}

// record handles the license/health/transit subcommands:
//
//	wallet <type> get [email-or-number]
//	wallet <type> add <number>
func (a *app) record(ctx context.Context, kind credentials.Kind, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wallet %s get|add ...", kindCommand(kind))
	}
	switch args[0] {
	case "get":
		lookup := a.defaultLookup()
		if len(args) > 1 {
			lookup = credentials.ParseLookup(args[1])
		}
		return a.getRecord(ctx, kind, lookup)
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: wallet %s add <number>", kindCommand(kind))
		}
		return a.addRecord(ctx, kind, args[1])
	default:
		return fmt.Errorf("unknown %s action %q", kindCommand(kind), args[0])
	}
}

// defaultLookup targets the signed-in user's own record.
func (a *app) defaultLookup() credentials.Lookup {
	s, err := a.controller.CurrentSession()
	if err != nil || s.Email == "" {
		return credentials.Lookup{}
	}
	return credentials.ByEmail(s.Email)
}

func (a *app) getRecord(ctx context.Context, kind credentials.Kind, lookup credentials.Lookup) error {
	switch kind {
	case credentials.KindDriversLicense:
		rec, err := a.records.FetchDriversLicense(ctx, lookup)
		if err != nil {
			return err
		}
		fmt.Printf("Driver's license %s (%s, expires %s)\n", rec.LicenseNumber, rec.Province, rec.ExpirationDate)
	case credentials.KindHealthCard:
		rec, err := a.records.FetchHealthCard(ctx, lookup)
		if err != nil {
			return err
		}
		fmt.Printf("Health card %s (%s, expires %s)\n", rec.CardNumber, rec.Province, rec.ExpirationDate)
	case credentials.KindTransitPass:
		rec, err := a.records.FetchTransitPass(ctx, lookup)
		if err != nil {
			return err
		}
		fmt.Printf("Transit pass %s (balance $%s, expires %s)\n", rec.CardNumber, rec.Balance, rec.ExpirationDate)
	}
	return nil
}

func (a *app) addRecord(ctx context.Context, kind credentials.Kind, number string) error {
	var err error
	switch kind {
	case credentials.KindDriversLicense:
		_, err = a.records.AddDriversLicense(ctx, number)
	case credentials.KindHealthCard:
		_, err = a.records.AddHealthCard(ctx, number)
	case credentials.KindTransitPass:
		_, err = a.records.AddTransitPass(ctx, number)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %s to your wallet.\n", kindCommand(kind), number)
	return nil
}

func kindCommand(kind credentials.Kind) string {
	switch kind {
	case credentials.KindDriversLicense:
		return "license"
	case credentials.KindHealthCard:
		return "health"
	case credentials.KindTransitPass:
		return "transit"
	}
	return string(kind)
}

// friendlyMessage maps sentinel errors to messages suitable for the
// terminal; anything unmapped is printed as-is.
func friendlyMessage(err error) string {
	switch {
	case errors.Is(err, walleterrors.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, walleterrors.ErrNoSavedCredentials):
		return "no saved credentials; log in with --remember first"
	case errors.Is(err, walleterrors.ErrUnauthorized):
		return "your session has expired; please log in again"
	case errors.Is(err, walleterrors.ErrRecordNotFound):
		return "no matching record was found"
	case errors.Is(err, walleterrors.ErrAlreadyClaimed):
		return "that record has already been added to a wallet"
	case errors.Is(err, walleterrors.ErrNetwork):
		return "could not reach the wallet service: " + err.Error()
	}
	return err.Error()
}

func displayAppName(appName string) {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println()
}

func usage() {
	fmt.Fprint(os.Stderr, strings.TrimLeft(`
Usage: wallet [-config file] <command> [args]

Commands:
  register -email E -password P -first F -last L
  login -email E -password P [-remember]
  quick-login
  logout
  status
  userinfo
  license|health|transit get [email-or-number]
  license|health|transit add <number>

Configuration comes from defaults, the optional -config file and
NSID_-prefixed environment variables (NSID_API_BASE_URL, ...).
`, "\n"))
}
