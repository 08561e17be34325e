// Command rosterctl is an operator tool for inspecting assignment and roster
// state directly in PostgreSQL, and for minting access tokens in development.
//
// It talks to PostgreSQL through a small pgx pool rather than the API's
// sqlx/lib/pq stack: it only runs ad-hoc read queries and needs none of the
// repositories.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/config"
)

const usage = `usage: rosterctl <command> [flags]

commands:
  counts                               row counts and lead coverage for the current academic year
  assignments -class ID [-year YYYY]   assignments of a class
  roster -class ID [-at RFC3339]       students enrolled in a class at an instant
  overdue [-grace 2h]                  unclosed sessions past their grace period
  token -user ID -role ROLE [-ttl 1h]  issue a development access token
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rosterctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return fmt.Errorf("missing command")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cmd, rest := args[0], args[1:]
	if cmd == "token" {
		return runToken(cfg, rest, out)
	}

	rule, err := academicyear.LoadRule(cfg.Academic.BoundaryMonth, cfg.Academic.BoundaryDay, cfg.Academic.Timezone)
	if err != nil {
		return err
	}

	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	q := &inspector{db: pool, out: out, now: time.Now}

	switch cmd {
	case "counts":
		return q.counts(ctx, rule.Label(q.now()))
	case "assignments":
		fs := flag.NewFlagSet("assignments", flag.ContinueOnError)
		classID := fs.String("class", "", "class id")
		year := fs.String("year", "", "academic year, defaults to current")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *classID == "" {
			return fmt.Errorf("-class is required")
		}
		if *year == "" {
			*year = rule.Label(q.now())
		}
		if !academicyear.ValidLabel(*year) {
			return fmt.Errorf("invalid academic year %q", *year)
		}
		return q.assignments(ctx, *classID, *year)
	case "roster":
		fs := flag.NewFlagSet("roster", flag.ContinueOnError)
		classID := fs.String("class", "", "class id")
		at := fs.String("at", "", "instant in RFC3339, defaults to now")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *classID == "" {
			return fmt.Errorf("-class is required")
		}
		instant := q.now()
		if *at != "" {
			if instant, err = time.Parse(time.RFC3339, *at); err != nil {
				return fmt.Errorf("parse -at: %w", err)
			}
		}
		return q.roster(ctx, *classID, instant)
	case "overdue":
		fs := flag.NewFlagSet("overdue", flag.ContinueOnError)
		grace := fs.Duration("grace", cfg.Attendance.GracePeriod, "grace period after ends_at")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return q.overdue(ctx, q.now().Add(-*grace))
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 2
	poolCfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func runToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id placed in the token")
	role := fs.String("role", string(auth.RoleAdmin), "SUPERADMIN, ADMIN or TEACHER")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("-user is required")
	}
	parsed, err := parseRole(*role)
	if err != nil {
		return err
	}
	if cfg.Env == config.EnvProduction {
		return fmt.Errorf("refusing to mint tokens with ENV=%s", cfg.Env)
	}

	verifier, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return err
	}
	token, err := verifier.Issue(*userID, parsed, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func parseRole(raw string) (auth.Role, error) {
	switch role := auth.Role(raw); role {
	case auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleTeacher:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}
