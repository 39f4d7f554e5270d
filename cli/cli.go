package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"studentdb/db"
	"studentdb/record"
)

var errExit = errors.New("exit")

type Cli struct {
	db          *db.DB
	interactive bool

	red    *color.Color
	yellow *color.Color
}

func NewCli(d *db.DB) *Cli {
	return &Cli{
		db:     d,
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
	}
}

// Run executes every command read from r, writing the results to w.
// It stops at "exit" or at the end of r.
func (c *Cli) Run(r io.Reader, w io.Writer) error {
	c.interactive = false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := c.processInput(scanner.Text(), w); err == errExit {
			return nil
		}
	}
	return errors.Wrap(scanner.Err(), "read commands")
}

// Start runs the interactive prompt on stdin.
func (c *Cli) Start() {
	c.interactive = true
	scanner := bufio.NewScanner(os.Stdin)
	c.printHelp(os.Stdout)
	c.printPrompt()
	for scanner.Scan() {
		if err := c.processInput(scanner.Text(), os.Stdout); err == errExit {
			return
		}
		c.printPrompt()
	}
}

func (c *Cli) printHelp(w io.Writer) {
	fmt.Fprint(w, `
Student DB CLI

Available Commands:
  FIND ID <id>                              Look up a student by ID
  FIND NAME <last name>                     Look up a student by last name
  ADD <id> <last> <first> <year> <major> <email>
                                            Append a student and index it
  DUMP ID|NAME                              Print an index, one key per line
  STATS                                     Print record and index statistics
  HELP                                      Print this message
  EXIT                                      Terminate this session

`)
}

func (c *Cli) printPrompt() {
	fmt.Print("> ")
}

func (c *Cli) processInput(line string, w io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return nil
	}
	command := strings.ToLower(fields[0])
	switch command {
	default:
		c.printError(w, "Unknown command \"%s\"", fields[0])
	case "find":
		c.processFindCommand(fields[1:], w)
	case "findname":
		c.processFindCommand(append([]string{"name"}, fields[1:]...), w)
	case "add":
		c.processAddCommand(fields[1:], w)
	case "dump":
		c.processDumpCommand(fields[1:], w)
	case "stats":
		c.processStatsCommand(w)
	case "help":
		c.printHelp(w)
	case "exit":
		return errExit
	}
	return nil
}

func (c *Cli) processFindCommand(args []string, w io.Writer) {
	if len(args) != 2 {
		c.printError(w, "Usage: FIND ID|NAME <key>")
		return
	}
	fmt.Fprintf(w, "COMMAND: find %s %s  \n", args[0], args[1])
	field, err := record.ParseField(args[0])
	if err != nil {
		c.printError(w, "%v", err)
		return
	}
	offset, ok, err := c.db.Find(field, args[1])
	if err != nil {
		c.printError(w, "%v", err)
		return
	}
	if !ok {
		c.printNotFound(w)
		return
	}
	fmt.Fprintf(w, "%d:%s\n", offset, args[1])
}

func (c *Cli) processAddCommand(args []string, w io.Writer) {
	s, err := record.FromFields(args)
	if err != nil {
		c.printError(w, "Usage: ADD <id> <last> <first> <year> <major> <email>")
		return
	}
	offset, err := c.db.Add(s)
	if err != nil {
		c.printError(w, "%v", err)
		return
	}
	fmt.Fprintf(w, "STUDENT %s ADDED (%d;0;0)\n", s.ID, offset)
}

func (c *Cli) processDumpCommand(args []string, w io.Writer) {
	if len(args) != 1 {
		c.printError(w, "Usage: DUMP ID|NAME")
		return
	}
	fmt.Fprintf(w, "COMMAND: dump by %s  \n", args[0])
	field, err := record.ParseField(args[0])
	if err != nil {
		c.printError(w, "%v", err)
		return
	}
	if err := c.db.Dump(field, w); err != nil {
		c.printError(w, "%v", err)
	}
}

func (c *Cli) processStatsCommand(w io.Writer) {
	st, err := c.db.Stats()
	if err != nil {
		c.printError(w, "%v", err)
		return
	}
	st.Print(w)
}

func (c *Cli) printNotFound(w io.Writer) {
	if c.interactive {
		c.yellow.Fprintln(w, "NOT FOUND")
		return
	}
	fmt.Fprintln(w, "NOT FOUND")
}

func (c *Cli) printError(w io.Writer, format string, args ...interface{}) {
	if c.interactive {
		c.red.Fprintf(w, "ERROR: "+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, "ERROR: "+format+"\n", args...)
}
