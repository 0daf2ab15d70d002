package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/app"
	clientorder "github.com/Additional-Code/repairdesk/internal/client/order"
	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/migration"
	"github.com/Additional-Code/repairdesk/internal/seeder"
	"github.com/Additional-Code/repairdesk/internal/tui"
	"github.com/Additional-Code/repairdesk/internal/tui/detail"
)

// NewRootCommand builds the root repairdesk CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "repairdesk",
		Short: "Equipment repair support orders",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newOrdersCmd())

	return root
}

// Execute runs the repairdesk CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the order service (HTTP and gRPC)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module, app.EventLogger))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				status, err := mig.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range status {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-8s %s\n", s.Version, state, s.Source)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Open demo support orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				n, err := seed.Orders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d orders seeded\n", n)
				return nil
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker, app.EventLogger))
		},
	})
	return cmd
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"browse"},
		Short:   "Browse support orders in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c clientDeps) error {
				router := tui.NewBrowser(c.Client, c.options(ctx))
				_, err := tea.NewProgram(router, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				return err
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Open the detail screen of one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c clientDeps) error {
				router := tui.NewDetail(c.Client, args[0], c.options(ctx))
				final, err := tea.NewProgram(router, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				if err != nil {
					return err
				}
				if r, ok := final.(tui.Router); ok && r.Notice() != nil {
					fmt.Fprintln(cmd.OutOrStdout(), r.Notice().Message)
				}
				return nil
			})
		},
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Register a support order",
		RunE: func(cmd *cobra.Command, args []string) error {
			patrimony, _ := cmd.Flags().GetString("patrimony")
			description, _ := cmd.Flags().GetString("description")
			if strings.TrimSpace(patrimony) == "" || strings.TrimSpace(description) == "" {
				return fmt.Errorf("--patrimony and --description are required")
			}
			return withClient(cmd.Context(), func(ctx context.Context, c clientDeps) error {
				doc, err := c.Client.CreateDocument(ctx, dto.Collection, dto.OrderRegistration{
					Patrimony:   patrimony,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %s registered (%s)\n", doc.ID,
					detail.FormatTimestamp(doc.CreatedAt, c.Config.Client.Location))
				return nil
			})
		},
	}
	newCmd.Flags().String("patrimony", "", "Equipment asset tag")
	newCmd.Flags().String("description", "", "Problem description")

	cmd.AddCommand(showCmd, newCmd)
	return cmd
}

type clientDeps struct {
	Client *clientorder.Client
	Config config.Config
	Logger *zap.Logger
}

func (c clientDeps) options(ctx context.Context) tui.Options {
	return tui.Options{
		Context:  ctx,
		Location: c.Config.Client.Location,
		Timeout:  c.Config.Client.Timeout,
		Logger:   c.Logger,
	}
}

func withClient(ctx context.Context, fn func(context.Context, clientDeps) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var deps clientDeps
	opts := fx.Options(app.Client, fx.Populate(&deps.Client, &deps.Config, &deps.Logger))
	return runWithApp(ctx, opts, func(ctx context.Context) error {
		return fn(ctx, deps)
	})
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
