package wgdev

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

// Quick drives interface lifecycle through wg-quick. It passes the interface
// name and relies on wg-quick's own /etc/wireguard lookup, the same config
// file this tool maintains.
type Quick struct {
	iface  string
	logger *logger.Logger
}

// NewQuick creates a Lifecycle for the named interface.
func NewQuick(iface string, log *logger.Logger) *Quick {
	if log == nil {
		log = logger.NewDevelopment("wg-quick")
	}
	return &Quick{iface: iface, logger: log}
}

func (q *Quick) run(ctx context.Context, action string) (string, error) {
	cmd := exec.CommandContext(ctx, "wg-quick", action, q.iface)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("wg-quick %s %s failed: %w, output: %s", action, q.iface, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Up brings the interface up.
func (q *Quick) Up(ctx context.Context) error {
	q.logger.Info("bringing interface up", "interface", q.iface)
	if _, err := q.run(ctx, "up"); err != nil {
		q.logger.ErrorCtx(ctx, "failed to bring interface up", err, "interface", q.iface)
		return err
	}
	return nil
}

// Down takes the interface down. Taking down an interface that is not up
// is treated as success.
func (q *Quick) Down(ctx context.Context) error {
	q.logger.Info("taking interface down", "interface", q.iface)
	output, err := q.run(ctx, "down")
	if err != nil {
		if strings.Contains(output, "is not a WireGuard interface") {
			q.logger.Debug("interface already down", "interface", q.iface)
			return nil
		}
		q.logger.ErrorCtx(ctx, "failed to take interface down", err, "interface", q.iface)
		return err
	}
	return nil
}

// Restart takes the interface down and brings it back up, reloading the
// persisted config from disk.
func (q *Quick) Restart(ctx context.Context) error {
	if err := q.Down(ctx); err != nil {
		return err
	}
	return q.Up(ctx)
}
