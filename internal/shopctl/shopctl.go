// Package shopctl implements the operator commands behind cmd/shopctl:
// generating signing secrets and repairing accounts directly in the store.
package shopctl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ErrUsage marks bad invocations.
var ErrUsage = errors.New("usage")

// Opener connects to the store on demand; gen-secret never calls it.
type Opener func(ctx context.Context) (*sql.DB, repomanager.RepositoryManager, error)

type Tool struct {
	open     Opener
	hasher   auth.Hasher
	password func(w io.Writer) ([]byte, error)
	out      io.Writer
	errOut   io.Writer
}

func New(open Opener, hasher auth.Hasher, out, errOut io.Writer) *Tool {
	return &Tool{open: open, hasher: hasher, password: GetPassword, out: out, errOut: errOut}
}

// Run executes args (without the program name) and returns the exit code.
func (t *Tool) Run(ctx context.Context, args []string) int {
	root := t.command()
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintln(t.errOut, "error:", err)
		fmt.Fprint(t.errOut, root.UsageString())
		return ExitUsage
	default:
		fmt.Fprintln(t.errOut, "error:", err)
		return ExitError
	}
}

func (t *Tool) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operator tasks for the BMX shop backend",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: missing command", ErrUsage)
			}
			return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
		},
	}
	root.SetOut(t.out)
	root.SetErr(t.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	root.AddCommand(&cobra.Command{
		Use:   "gen-secret",
		Short: "Print a new 512-bit signing secret",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(t.out, auth.EncodeKey(auth.GenerateKey()))
			return err
		},
	})

	var email, role string

	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account (prompted, not echoed)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return fmt.Errorf("%w: --email is required", ErrUsage)
			}
			pw, err := t.password(t.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)
			return t.ResetPassword(cmd.Context(), email, string(pw))
		},
	}
	reset.Flags().StringVar(&email, "email", "", "account email")
	root.AddCommand(reset)

	assign := &cobra.Command{
		Use:   "assign-role",
		Short: "Add a role to an account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || role == "" {
				return fmt.Errorf("%w: --email and --role are required", ErrUsage)
			}
			return t.AssignRole(cmd.Context(), email, role)
		},
	}
	assign.Flags().StringVar(&email, "email", "", "account email")
	assign.Flags().StringVar(&role, "role", "", "role name (USER or ADMIN)")
	root.AddCommand(assign)

	return root
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// ResetPassword stores a new hash for the account with the given email.
func (t *Tool) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := t.hasher.Hash(password)
	if err != nil {
		return err
	}

	db, rm, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := rm.Users(tx).GetByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return fmt.Errorf("find %s: %w", email, err)
		}
		return rm.Users(tx).UpdatePassword(ctx, u.ID, hash)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "password updated for %s\n", email)
	return nil
}

// AssignRole adds role to the account; roles already held are kept.
func (t *Tool) AssignRole(ctx context.Context, email, role string) error {
	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}

	db, rm, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var names []string
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := rm.Users(tx).GetByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return fmt.Errorf("find %s: %w", email, err)
		}
		roles := models.NewRoleSet(u.Roles.Slice()...)
		roles[r] = struct{}{}
		names = roles.Names()
		return rm.Users(tx).SetRoles(ctx, u.ID, roles)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "%s now has roles %s\n", email, strings.Join(names, ", "))
	return nil
}
