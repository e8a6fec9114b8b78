package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
)

// =============================================================================
// 🖥️ 终端输出
// =============================================================================

// CLI 将 Migrator 的操作格式化输出到终端
type CLI struct {
	migrator Migrator
	out      io.Writer
}

// NewCLI 默认输出到 stdout
func NewCLI(m Migrator) *CLI {
	return &CLI{migrator: m, out: os.Stdout}
}

// SetOutput 替换输出目标
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// Run 按子命令分派：up|down|status|version|goto <v>|force <v>|reset|info
func (c *CLI) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "up":
		return c.RunUp(ctx)
	case "down":
		return c.RunDown(ctx)
	case "reset":
		return c.RunReset(ctx)
	case "status":
		return c.RunStatus(ctx)
	case "version":
		return c.RunVersion(ctx)
	case "info":
		return c.RunInfo(ctx)
	case "goto":
		v, err := versionArg(cmd, args)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("goto: version must be >= 0")
		}
		return c.RunGoto(ctx, uint(v))
	case "force":
		v, err := versionArg(cmd, args)
		if err != nil {
			return err
		}
		return c.RunForce(ctx, v)
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
}

func versionArg(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected exactly one version argument", cmd)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid version %q: %w", cmd, args[0], err)
	}
	return v, nil
}

func (c *CLI) RunUp(ctx context.Context) error {
	fmt.Fprintln(c.out, "Applying migrations...")
	if err := c.migrator.Up(ctx); err != nil {
		return err
	}
	return c.printCurrent(ctx, "Up to date")
}

func (c *CLI) RunDown(ctx context.Context) error {
	fmt.Fprintln(c.out, "Rolling back last migration...")
	if err := c.migrator.Down(ctx); err != nil {
		return err
	}
	return c.printCurrent(ctx, "Rolled back")
}

func (c *CLI) RunReset(ctx context.Context) error {
	fmt.Fprintln(c.out, "Resetting schema...")
	if err := c.migrator.Reset(ctx); err != nil {
		return err
	}
	return c.printCurrent(ctx, "Reset complete")
}

func (c *CLI) RunGoto(ctx context.Context, version uint) error {
	fmt.Fprintf(c.out, "Migrating to version %d...\n", version)
	if err := c.migrator.Goto(ctx, version); err != nil {
		return err
	}
	return c.printCurrent(ctx, "Migration complete")
}

func (c *CLI) RunForce(ctx context.Context, version int) error {
	if err := c.migrator.Force(ctx, version); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Version forced to %d\n", version)
	return nil
}

func (c *CLI) RunVersion(ctx context.Context) error {
	version, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(c.out, "No migrations applied yet.")
		return nil
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(c.out, "Current version: %d%s\n", version, suffix)
	return nil
}

func (c *CLI) RunStatus(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(c.out, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	applied := 0
	for _, s := range statuses {
		state := "pending"
		switch {
		case s.Dirty:
			state = "dirty"
		case s.Applied:
			state = "applied"
		}
		if s.Applied {
			applied++
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\nTotal: %d, Applied: %d, Pending: %d\n", len(statuses), applied, len(statuses)-applied)
	return nil
}

func (c *CLI) RunInfo(ctx context.Context) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Migration Information:")
	fmt.Fprintf(c.out, "  Current Version:    %d\n", info.CurrentVersion)
	fmt.Fprintf(c.out, "  Dirty:              %v\n", info.Dirty)
	fmt.Fprintf(c.out, "  Total Migrations:   %d\n", info.TotalMigrations)
	fmt.Fprintf(c.out, "  Applied Migrations: %d\n", info.AppliedMigrations)
	fmt.Fprintf(c.out, "  Pending Migrations: %d\n", info.PendingMigrations)
	return nil
}

func (c *CLI) printCurrent(ctx context.Context, label string) error {
	version, _, err := c.migrator.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s. Current version: %d\n", label, version)
	return nil
}
