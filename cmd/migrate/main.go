package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/dispensary-pos/internal/users"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/migrate"
)

const seedPasswordEnv = "DISPENSARY_SEED_ADMIN_PASSWORD"

type options struct {
	dir      string
	name     string
	version  string
	username string
}

// runtime is what database commands receive once a connection is open.
type runtime struct {
	logg   *logger.Logger
	client *db.Client
	sqlDB  *sql.DB
	cfg    *config.Config
}

var offline = map[string]func(opts options) error{
	"create": func(opts options) error {
		if opts.name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(opts options) error {
		validate := func() error { return migrate.ValidateDir(opts.dir) }
		if opts.dir == migrate.DefaultDir {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

var online = map[string]func(ctx context.Context, rt runtime, opts options) error{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, rt runtime, opts options) error {
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, rt.sqlDB, opts.dir, opts.version)
	},
	"current": func(_ context.Context, rt runtime, _ options) error {
		v, err := migrate.Version(rt.sqlDB)
		if err != nil {
			return err
		}
		fmt.Println("schema version:", v)
		return nil
	},
	"seed-admin": func(ctx context.Context, rt runtime, opts options) error {
		return seedAdmin(ctx, rt.logg, rt.client, rt.cfg.Password, opts.username)
	},
}

func gooseCommand(name string) func(context.Context, runtime, options) error {
	return func(ctx context.Context, rt runtime, opts options) error {
		return migrate.Run(ctx, rt.sqlDB, opts.dir, name)
	}
}

func commandNames() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+commandNames())
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.StringVar(&opts.username, "username", "admin", "admin username (seed-admin)")
	flag.Parse()

	if err := run(*cmd, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd string, opts options) error {
	if fn, ok := offline[cmd]; ok {
		return fn(opts)
	}
	fn, ok := online[cmd]
	if !ok {
		return fmt.Errorf("unknown command, want one of %s", commandNames())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": cmd,
		"dir": opts.dir,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	return fn(ctx, runtime{logg: logg, client: client, sqlDB: sqlDB, cfg: cfg}, opts)
}

// seedAdmin creates the bootstrap admin account. An existing username is not
// an error so the command can run on every deploy.
func seedAdmin(ctx context.Context, logg *logger.Logger, client *db.Client, cfg config.PasswordConfig, username string) error {
	password := os.Getenv(seedPasswordEnv)
	if password == "" {
		return fmt.Errorf("%s is required", seedPasswordEnv)
	}
	svc, err := users.NewService(users.NewRepository(client.DB()), cfg)
	if err != nil {
		return err
	}
	user, err := svc.Create(ctx, users.CreateInput{
		Username: username,
		Password: password,
		Role:     enums.AdminRoleAdmin,
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		logg.Info(ctx, "admin user already exists")
		return nil
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithUserID(ctx, user.ID.String()), "admin user created")
	return nil
}
