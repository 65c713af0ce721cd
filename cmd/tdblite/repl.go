package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/internal/parser"
	"github.com/tobsdb/tdblite/pkg"
)

const prompt = "tdb> "

const helpText = `Commands:
  CREATE <table> (<column>:<type>, ...)      types: int, float, bool, str
  DROP   <table>
  LIST
  INSERT <table> VALUES (<value>, ...)
  SELECT <table> [WHERE <column> = <value>]
  UPDATE <table> SET <column>=<value>, ... WHERE <column> = <value>
  DELETE <table> WHERE <column> = <value>
  INFO   <table>
  help
  exit
Values containing commas or spaces can be quoted with ' or ".`

type Repl struct {
	runner Runner
	in     *bufio.Scanner
	out    io.Writer
	yes    bool
}

func NewRepl(runner Runner, in io.Reader, out io.Writer, yes bool) *Repl {
	return &Repl{runner, bufio.NewScanner(in), out, yes}
}

// Run reads commands until exit or end of input.
func (r *Repl) Run() error {
	fmt.Fprintln(r.out, `tdblite. Type "help" for commands, "exit" to quit.`)
	for {
		fmt.Fprint(r.out, prompt)
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		switch strings.ToLower(strings.TrimSuffix(line, ";")) {
		case "":
			continue
		case "help":
			fmt.Fprintln(r.out, helpText)
			continue
		case "exit", "quit":
			return nil
		}
		r.Exec(line)
	}
}

// Exec runs one command and prints the outcome. It reports whether the
// command succeeded.
func (r *Repl) Exec(line string) bool {
	op, err := parser.Parse(line)
	if err != nil {
		Render(r.out, conn.ErrorResponse(err), nil)
		return false
	}

	res := r.runner.Run(line, op, r.confirm)

	var columns []string
	if op.Kind() == parser.OpSelect && res.Ok() {
		columns, err = r.runner.TableColumns(op.TableName())
		if err != nil {
			pkg.DebugLog("reading columns of", op.TableName(), err)
		}
	}
	Render(r.out, res, columns)
	return res.Ok() || res.Status == conn.StatusCancelled
}

func (r *Repl) confirm(op parser.Operation) bool {
	if r.yes {
		return true
	}
	fmt.Fprintf(r.out, "Are you sure you want to %s %s? [y/n]: ", strings.ToUpper(string(op.Kind())), op.TableName())
	if !r.in.Scan() {
		fmt.Fprintln(r.out)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(r.in.Text()))
	return answer == "y" || answer == "yes"
}
