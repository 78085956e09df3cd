// Command admin performs account maintenance directly against the server
// database.
//
//	admin create-user -email a@x.com -name alice [-c config.json] [-driver sqlite -d dsn]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 || args[0] != "create-user" {
		return errors.New("usage: admin create-user -email EMAIL -name NAME")
	}
	args = args[1:]

	var email, name string
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&name, "name", "", "account name")
	if err := fs.Parse(filterOwn(args)); err != nil {
		return err
	}
	if email == "" || name == "" {
		return errors.New("-email and -name are required")
	}

	cfg := config.LoadConfigFromArgs(args)
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	password, err := readPassword(stdin, stdout)
	if err != nil {
		return err
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	rm, err := repomanager.NewSQLRepositoryManager(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	us := services.NewUserService(db, rm, services.NewSessionService(db, rm), cfg)
	user, err := us.CreateAccount(ctx, services.CreateAccountRequest{Email: email, Name: name, Password: password})
	if err != nil {
		return err
	}

	logger.Info(ctx, "account created", "user_id", user.ID, "name", user.Name)
	fmt.Fprintf(stdout, "created user %d (%s)\n", user.ID, user.Name)
	return nil
}

// filterOwn keeps the create-user flags and drops the config flags.
func filterOwn(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-email", "--email", "-name", "--name":
			out = append(out, args[i])
			if i+1 < len(args) {
				out = append(out, args[i+1])
				i++
			}
		default:
			for _, p := range []string{"-email=", "--email=", "-name=", "--name="} {
				if strings.HasPrefix(args[i], p) {
					out = append(out, args[i])
				}
			}
		}
	}
	return out
}
