package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/secure-evidence-api/api/scheduler"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "evidencectl",
		Usage: "Operator tools for the secure evidence api",
		Commands: []*cli.Command{
			seedCommand(),
			sweepCommand(),
			hashPasswordCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the default admin, investigator and analyst accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Value: defaultSeedPassword, Usage: "password given to every seeded account"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			conf := config.New()
			db, closeDB, err := connect(ctx, conf)
			if err != nil {
				return err
			}
			defer closeDB()

			created, err := Seed(ctx, databases.NewUserDatabase(db), c.String("password"))
			if err != nil {
				return err
			}
			for _, acct := range seedAccounts {
				state := "exists"
				if created[acct.Email] {
					state = "created"
				}
				fmt.Printf("%-9s %-13s %s\n", state, acct.Role, acct.Email)
			}
			return nil
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove uploaded files that no evidence record references",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "upload directory (defaults to UPLOAD_DIR)"},
			&cli.DurationFlag{Name: "grace", Value: time.Hour, Usage: "leave files younger than this alone"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			conf := config.New()
			dir := c.String("dir")
			if dir == "" {
				dir = conf.UploadDir
			}

			db, closeDB, err := connect(ctx, conf)
			if err != nil {
				return err
			}
			defer closeDB()

			removed, err := scheduler.SweepOrphans(ctx, dir, c.Duration("grace"), databases.NewEvidenceDatabase(db), time.Now())
			if err != nil {
				return err
			}
			for _, name := range removed {
				fmt.Println("removed", name)
			}
			fmt.Printf("%d orphaned file(s) removed from %s\n", len(removed), dir)
			return nil
		},
	}
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print the bcrypt hash of a password",
		ArgsUsage: "<password>",
		Action: func(ctx context.Context, c *cli.Command) error {
			password := c.Args().First()
			if password == "" {
				return fmt.Errorf("usage: evidencectl hash-password <password>")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func connect(ctx context.Context, conf *config.Config) (databases.DatabaseHelper, func(), error) {
	client, err := databases.NewClient(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeDB := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
	return databases.NewDatabase(conf, client), closeDB, nil
}
