package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/client"
	"github.com/colonyops/todod/pkg/iojson"
)

// addInput mirrors the /addTodo request body.
type addInput struct {
	Todo *string `json:"todo"`
}

// TodoCmd implements the todod todo command group, a client for a running server.
type TodoCmd struct {
	flags  *Flags
	server string

	// add flags
	addText  string
	addInput iojson.FileReader[addInput]
}

// NewTodoCmd creates a new todo command.
func NewTodoCmd(flags *Flags) *TodoCmd {
	return &TodoCmd{flags: flags}
}

func (cmd *TodoCmd) client() *client.Client {
	return client.New(cmd.server, nil)
}

// Register adds the todo command to the application.
func (cmd *TodoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "todo",
		Usage: "Manage todos on a running server",
		Description: `Client commands for a running "todod serve".

Examples:
  todod todo list                          # list todos as JSON lines
  todod todo add --text "buy milk"         # add a todo
  echo '{"todo":"buy milk"}' | todod todo add
  todod todo toggle 1                      # flip completion
  todod todo rm 1                          # remove`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "base URL of the todo server",
				Sources:     cli.EnvVars("TODOD_SERVER"),
				Value:       client.DefaultBaseURL,
				Destination: &cmd.server,
			},
		},
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.addCmd(),
			cmd.toggleCmd(),
			cmd.removeCmd(),
		},
	})

	return app
}

func (cmd *TodoCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List todos",
		UsageText: "todod todo list",
		Action:    cmd.runList,
	}
}

func (cmd *TodoCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a todo",
		UsageText: "todod todo add --text <text> | todod todo add [-f file.json]",
		Description: `Adds a todo. Text comes from --text, or from a JSON document
{"todo": "<text>"} read from -f or stdin.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "text",
				Aliases:     []string{"t"},
				Usage:       "todo text",
				Destination: &cmd.addText,
			},
			cmd.addInput.Flag(),
		},
		Action: cmd.runAdd,
	}
}

func (cmd *TodoCmd) toggleCmd() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Flip a todo between complete and incomplete",
		UsageText: "todod todo toggle <id>",
		Action:    cmd.runToggle,
	}
}

func (cmd *TodoCmd) removeCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Remove a todo",
		UsageText: "todod todo rm <id>",
		Action:    cmd.runRemove,
	}
}

func (cmd *TodoCmd) runList(ctx context.Context, c *cli.Command) error {
	items, err := cmd.client().List(ctx)
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}

	for _, item := range items {
		if err := iojson.WriteLine(c.Root().Writer, item); err != nil {
			return err
		}
	}

	return nil
}

func (cmd *TodoCmd) runAdd(ctx context.Context, c *cli.Command) error {
	text, err := cmd.resolveAddText(c)
	if err != nil {
		return err
	}

	if err := cmd.client().Add(ctx, text); err != nil {
		return fmt.Errorf("add todo: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "added")
	return nil
}

func (cmd *TodoCmd) resolveAddText(c *cli.Command) (string, error) {
	if c.IsSet("text") {
		return cmd.addText, nil
	}

	if !cmd.addInput.Provided() {
		return "", errors.New("usage: todod todo add --text <text> (or pipe {\"todo\": ...} on stdin)")
	}

	in, err := cmd.addInput.Read()
	if err != nil {
		return "", fmt.Errorf("read todo input: %w", err)
	}
	if in.Todo == nil {
		return "", errors.New("read todo input: missing field \"todo\"")
	}
	return *in.Todo, nil
}

func (cmd *TodoCmd) runToggle(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c, "toggle")
	if err != nil {
		return err
	}

	if err := cmd.client().Toggle(ctx, id); err != nil {
		return fmt.Errorf("toggle todo %d: %w", id, err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "toggled")
	return nil
}

func (cmd *TodoCmd) runRemove(ctx context.Context, c *cli.Command) error {
	id, err := parseID(c, "rm")
	if err != nil {
		return err
	}

	if err := cmd.client().Remove(ctx, id); err != nil {
		return fmt.Errorf("remove todo %d: %w", id, err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "removed")
	return nil
}

func parseID(c *cli.Command, verb string) (uint32, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("usage: todod todo %s <id>", verb)
	}

	n, err := strconv.ParseUint(c.Args().Get(0), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an unsigned 32-bit integer", c.Args().Get(0))
	}
	return uint32(n), nil
}
