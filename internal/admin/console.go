// Package admin is the operator console: a line-oriented command grammar on
// the server process's stdin, separate from the player dispatcher.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/gameserver"
)

const helpText = `shutdown - begin the shutdown countdown
kick <character> <reason> - disconnect a character
ban <user> <reason> - ban an account and kick it
banip <user> <reason> - ban the account and its current address
deleteuser <user> - delete an account and its characters
deletecharacter <character> - delete a character
move <character> <roomid> - teleport a character
listusers - list accounts, characters, and who is online
commands - show this listing`

// Console runs the admin grammar over an input/output stream pair. It plugs
// into the server lifecycle as a service.
type Console struct {
	server *gameserver.Server
	logger *zap.Logger
	in     io.Reader
	out    io.Writer

	closed atomic.Bool
}

// NewConsole creates a Console. Pass os.Stdin/os.Stdout in production.
func NewConsole(server *gameserver.Server, logger *zap.Logger, in io.Reader, out io.Writer) *Console {
	return &Console{server: server, logger: logger, in: in, out: out}
}

// Start reads and executes console commands until the input closes or Stop
// is called. An input read error ends the console without failing the
// process.
func (c *Console) Start() error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if c.closed.Load() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.Execute(context.Background(), line); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("console input closed", zap.Error(err))
	}
	return nil
}

// Stop ends the console at the next input line. A blocked stdin read cannot
// be interrupted, so the process exiting is what actually releases it.
func (c *Console) Stop() {
	c.closed.Store(true)
}

// Execute runs one console command line.
func (c *Console) Execute(ctx context.Context, line string) error {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case "shutdown":
		c.server.Shutdown(ctx)
		fmt.Fprintln(c.out, "shutdown countdown started")
		return nil
	case "kick":
		name, reason, err := splitNameAndRest(rest)
		if err != nil {
			return err
		}
		if err := c.server.Kick(ctx, name, reason); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "kicked %s\n", name)
		return nil
	case "ban":
		name, reason, err := splitNameAndRest(rest)
		if err != nil {
			return err
		}
		if err := c.server.Ban(ctx, name, reason); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "banned %s\n", name)
		return nil
	case "banip":
		name, reason, err := splitNameAndRest(rest)
		if err != nil {
			return err
		}
		if err := c.server.BanIP(ctx, name, reason); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "ip-banned %s\n", name)
		return nil
	case "deleteuser":
		if rest == "" {
			return fmt.Errorf("usage: deleteuser <user>")
		}
		if err := c.server.DeleteUser(ctx, rest); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "deleted user %s\n", rest)
		return nil
	case "deletecharacter":
		if rest == "" {
			return fmt.Errorf("usage: deletecharacter <character>")
		}
		if err := c.server.DeleteCharacter(ctx, rest); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "deleted character %s\n", rest)
		return nil
	case "move":
		name, roomArg, err := splitNameAndRest(rest)
		if err != nil {
			return fmt.Errorf("usage: move <character> <roomid>")
		}
		roomID, err := strconv.ParseInt(roomArg, 10, 64)
		if err != nil {
			return fmt.Errorf("room id %q is not a number", roomArg)
		}
		if err := c.server.MoveCharacter(ctx, name, roomID); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "moved %s to room %d\n", name, roomID)
		return nil
	case "listusers":
		lines, err := c.server.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(c.out, l)
		}
		return nil
	case "commands":
		fmt.Fprintln(c.out, helpText)
		return nil
	}
	return fmt.Errorf("unknown console command %q, try 'commands'", word)
}

func splitNameAndRest(s string) (string, string, error) {
	name, rest, _ := strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)
	if name == "" || rest == "" {
		return "", "", fmt.Errorf("expected a name and a value")
	}
	return name, rest, nil
}
