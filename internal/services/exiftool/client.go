package exiftool

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	goexiftool "github.com/barasher/go-exiftool"

	"takeoutfix/internal/config"
	"takeoutfix/internal/deps"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/services"
)

// Session is the subset of a go-exiftool process used here.
type Session interface {
	ExtractMetadata(files ...string) []goexiftool.FileMetadata
	WriteMetadata(fileMetadata []goexiftool.FileMetadata)
	Close() error
}

// CommandRunner executes a one-shot exiftool invocation and returns its
// combined output.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Options configures a Client.
type Options struct {
	Binary          string
	Timeout         time.Duration
	RepairOnFailure bool
	SyncFileDates   bool
}

// OptionsFromConfig maps the [exiftool] config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Binary:          cfg.ExiftoolBinary(),
		Timeout:         cfg.ExiftoolTimeout(),
		RepairOnFailure: cfg.Exiftool.RepairOnFailure,
		SyncFileDates:   cfg.Exiftool.SyncFileDates,
	}
}

// Client patches date tags. A Client serializes access to its session and
// is safe for concurrent use.
type Client struct {
	opts    Options
	binary  string
	logger  *slog.Logger
	mu      sync.Mutex
	session Session
}

// New resolves the exiftool binary and starts a session.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	status := deps.ResolveExiftool(opts.Binary)
	if !status.Available {
		return nil, services.Wrap(services.ErrConfiguration, "exiftool", "resolve binary", status.Detail, nil)
	}
	session, err := newSession(status.Command)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "exiftool", "start session", "", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Client{
		opts:    opts,
		binary:  status.Command,
		logger:  logging.NewComponentLogger(logger, "exiftool"),
		session: session,
	}, nil
}

// Binary returns the resolved exiftool path.
func (c *Client) Binary() string {
	return c.binary
}

// Close stops the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// run executes a one-shot invocation bounded by the configured timeout.
func (c *Client) run(ctx context.Context, operation string, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	c.logger.Debug("exiftool invocation", logging.String("command", c.binary+" "+strings.Join(args, " ")))
	output, err := runCommand(runCtx, c.binary, args...)
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if runCtx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "exiftool", operation, detail, err)
		}
		return services.Wrap(services.ErrExternalTool, "exiftool", operation, detail, err)
	}
	return nil
}

func defaultSession(binary string) (Session, error) {
	et, err := goexiftool.NewExiftool(goexiftool.SetExiftoolBinaryPath(binary))
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return et, nil
}

func defaultRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).CombinedOutput()
}
