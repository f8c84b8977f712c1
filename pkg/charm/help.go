package charm

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kr/text"
	"golang.org/x/term"
)

var Help = &Spec{
	Name:  "help",
	Usage: "help [command]",
	Short: "display help for a command",
	Long: `
For help on the top-level command just type "help".
For help on a subcommand, type "help command" where command is the name of
the command.  For help on command nested further, type "help cmd1 cmd2" and
so forth.`,
	HiddenFlags: "v",
	New: func(parent Command, f *flag.FlagSet) (Command, error) {
		c := &HelpCommand{}
		f.BoolVar(&c.vflag, "v", false, "show hidden commands and flags")
		return c, nil
	},
}

type HelpCommand struct {
	vflag bool
}

func (c *HelpCommand) Run(args []string) error {
	root := Help.Root()
	p, err := parseHelp(root, args)
	if err != nil {
		return err
	}
	if len(p)-1 != len(args) {
		return fmt.Errorf("no such command: %s", strings.Join(args, " "))
	}
	displayHelp(p, c.vflag)
	return nil
}

// flagMap maps each name in the comma-separated list flags to true.
func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, flag := range strings.Split(flags, ",") {
		if flag = strings.TrimSpace(flag); flag != "" {
			m[flag] = true
		}
	}
	return m
}

const tab = "    "

func width() int {
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

func header(heading string) string {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[1m" + heading + "\033[0m"
	}
	return heading
}

func formatParagraph(body string, lineWidth int) string {
	var chunks []string
	for _, paragraph := range strings.Split(strings.TrimSpace(body), "\n\n") {
		paragraph = text.Wrap(strings.TrimSpace(paragraph), lineWidth)
		chunks = append(chunks, text.Indent(paragraph, tab))
	}
	return strings.Join(chunks, "\n\n") + "\n\n"
}

func helpDesc(heading, body string) {
	lineWidth := width() - len(tab) - 5
	fmt.Fprint(out, header(heading)+"\n"+formatParagraph(body, lineWidth))
}

func helpList(heading string, lines []string) {
	fmt.Fprint(out, header(heading)+"\n"+tab+strings.Join(lines, "\n"+tab)+"\n\n")
}

func commands(target *Spec, vflag bool) []string {
	var lines []string
	for _, cmd := range target.children {
		name := cmd.Name
		if cmd.Hidden {
			if !vflag {
				continue
			}
			name = "[" + name + "]"
		}
		lines = append(lines, name+" - "+cmd.Short)
	}
	return lines
}

// options lists the flags of the last command in p and then, under a
// header per command, the flags of its ancestors.
func options(p path, vflag bool) []string {
	lines := p.last().options(vflag)
	if len(lines) == 0 {
		lines = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		opts := p[k].options(vflag)
		if len(opts) == 0 {
			continue
		}
		lines = append(lines, "", "["+p[:k+1].pathname()+" flags]")
		lines = append(lines, opts...)
	}
	return lines
}

func displayHelp(p path, vflag bool) {
	spec := p.last().spec
	helpList("NAME", []string{spec.Name + " - " + spec.Short})
	helpDesc("USAGE", spec.Usage)
	helpList("OPTIONS", options(p, vflag))
	if len(spec.children) > 0 {
		helpList("COMMANDS", commands(spec, vflag))
	}
	if spec.Long != "" {
		helpDesc("DESCRIPTION", spec.Long)
	}
}
