// Package app holds pieces shared across the call-lifecycle services in its
// subpackages. Today that is the device dialer.
package app

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/teeline/teeline/internal/domain"
)

// CommandDialer places manual calls by running a configured shell command
// with {number} substituted, e.g. `termux-telephony-call {number}` or
// `open tel:{number}`. With no command configured it only logs, which keeps
// headless setups working.
type CommandDialer struct {
	command string
}

// NewCommandDialer creates a dialer for the configured dial command.
func NewCommandDialer(command string) *CommandDialer {
	return &CommandDialer{command: command}
}

// Dial runs the dial command for the given number.
func (d *CommandDialer) Dial(ctx context.Context, number string) error {
	if d.command == "" {
		log.Printf("[dial] no dial command configured, assuming %s was dialed", number)
		return nil
	}

	cmdline := strings.ReplaceAll(d.command, "{number}", number)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %v: %s", domain.ErrDialFailed, err, strings.TrimSpace(string(out)))
	}
	log.Printf("[dial] dialed %s", number)
	return nil
}

var _ domain.Dialer = (*CommandDialer)(nil)
