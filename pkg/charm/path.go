package charm

import (
	"flag"
	"fmt"
	"strings"
)

type path []*instance

func parse(spec *Spec, args []string) (path, []string, error) {
	inst, err := newInstance(nil, spec)
	if err != nil {
		return nil, nil, err
	}
	p := path{inst}
	for {
		rest, err := parseFlags(inst.flags, args)
		if err != nil {
			return nil, nil, err
		}
		if len(rest) == 0 {
			return p, rest, nil
		}
		child := inst.spec.lookupSub(rest[0])
		if child == nil {
			return p, rest, nil
		}
		inst, err = newInstance(inst.command, child)
		if err != nil {
			return nil, nil, err
		}
		p = append(p, inst)
		args = rest[1:]
	}
}

// parseHelp builds the path named by the non-flag words of args without
// parsing any flags.
func parseHelp(spec *Spec, args []string) (path, error) {
	inst, err := newInstance(nil, spec)
	if err != nil {
		return nil, err
	}
	p := path{inst}
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		child := inst.spec.lookupSub(arg)
		if child == nil {
			break
		}
		inst, err = newInstance(inst.command, child)
		if err != nil {
			return nil, err
		}
		p = append(p, inst)
	}
	return p, nil
}

func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, NeedHelp
		}
		return nil, err
	}
	return fs.Args(), nil
}

func (p path) last() *instance {
	return p[len(p)-1]
}

func (p path) pathname() string {
	var names []string
	for _, inst := range p {
		names = append(names, inst.spec.Name)
	}
	return strings.Join(names, " ")
}

func (p path) subCommands() string {
	var names []string
	for _, child := range p.last().spec.children {
		if !child.Hidden {
			names = append(names, child.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (p path) run(args []string) error {
	err := p.last().command.Run(args)
	if err == ErrNoRun {
		if len(args) == 0 {
			err = fmt.Errorf("%q: requires a sub-command: %s", p.pathname(), p.subCommands())
		} else {
			err = fmt.Errorf("%q: no such sub-command %q: options are: %s", p.pathname(), args[0], p.subCommands())
		}
	}
	return err
}
