package mcfg

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mctx"
	"github.com/mediocregopher/florun/merr"
)

// SourceCLI is a Source which parses configuration from the command line.
//
// A Param named "addr" registered on a Component with Path
// []string{"foo","bar"} is set via "--foo-bar-addr".
//
// If "-h" is seen, a help page is printed to stderr and the process exits.
//
// Boolean parameters may be set with "--flag" (meaning true), or explicitly
// with "--flag=false"/"--flag=true".
type SourceCLI struct {
	Args []string // if nil, os.Args[1:] is used

	DisableHelpPage bool
}

const (
	cliKeyPrefix = "--"
	cliValSep    = "="
	cliHelpArg   = "-h"
)

// Parse implements the Source interface.
func (cli *SourceCLI) Parse(cmp *mcmp.Component) ([]ParamValue, error) {
	args := cli.Args
	if args == nil {
		args = os.Args[1:]
	}

	pM := cli.cliParams(CollectParams(cmp))

	printHelpAndExit := func() {
		cli.printHelp(os.Stderr, pM)
		os.Stderr.Sync()
		os.Exit(1)
	}

	pvs := make([]ParamValue, 0, len(args))
	var (
		key        string
		p          Param
		pOk        bool
		pvStrVal   string
		pvStrValOk bool
	)
	for _, arg := range args {
		if pOk {
			pvStrVal = arg
			pvStrValOk = true
		} else if !cli.DisableHelpPage && arg == cliHelpArg {
			printHelpAndExit()
		} else {
			for key, p = range pM {
				if arg == key {
					pOk = true
					break
				}
				prefix := key + cliValSep
				if !strings.HasPrefix(arg, prefix) {
					continue
				}
				pOk = true
				pvStrVal = strings.TrimPrefix(arg, prefix)
				pvStrValOk = true
				break
			}
			if !pOk {
				ctx := mctx.Annotate(cmp.Context(), "param", arg)
				return nil, merr.New(ctx, "unexpected config parameter")
			}
		}

		if p.IsBool && !pvStrValOk {
			pvStrVal = "true"
		} else if !pvStrValOk {
			continue
		}

		pvs = append(pvs, ParamValue{
			Name:  p.Name,
			Path:  p.Component.Path(),
			Value: p.fuzzyParse(pvStrVal),
		})

		key = ""
		p = Param{}
		pOk = false
		pvStrVal = ""
		pvStrValOk = false
	}
	if pOk && !pvStrValOk {
		ctx := mctx.Annotate(p.Component.Context(), "param", key)
		return nil, merr.New(ctx, "param expected a value")
	}

	return pvs, nil
}

func (cli *SourceCLI) cliParams(params []Param) map[string]Param {
	m := map[string]Param{}
	for _, p := range params {
		key := strings.Join(append(p.Component.Path(), p.Name), "-")
		m[cliKeyPrefix+key] = p
	}
	return m
}

func (cli *SourceCLI) printHelp(w io.Writer, pM map[string]Param) {
	type pEntry struct {
		arg string
		Param
	}

	pA := make([]pEntry, 0, len(pM))
	for arg, p := range pM {
		pA = append(pA, pEntry{arg: arg, Param: p})
	}

	sort.Slice(pA, func(i, j int) bool {
		if pA[i].Required != pA[j].Required {
			return pA[i].Required
		}
		return pA[i].arg < pA[j].arg
	})

	fmtDefaultVal := func(ptr interface{}) string {
		if ptr == nil {
			return ""
		}
		val := reflect.Indirect(reflect.ValueOf(ptr))
		zero := reflect.Zero(val.Type())
		if reflect.DeepEqual(val.Interface(), zero.Interface()) {
			return ""
		} else if val.Type().Kind() == reflect.String {
			return fmt.Sprintf("%q", val.Interface())
		}
		return fmt.Sprint(val.Interface())
	}

	fmt.Fprintf(w, "Usage: %s", os.Args[0])
	if len(pA) > 0 {
		fmt.Fprint(w, " [options]")
	}
	fmt.Fprint(w, "\n\n")

	if len(pA) > 0 {
		fmt.Fprint(w, "Options:\n\n")
		for _, p := range pA {
			fmt.Fprintf(w, "\t%s", p.arg)
			if p.IsBool {
				fmt.Fprintf(w, " (Flag)")
			} else if p.Required {
				fmt.Fprintf(w, " (Required)")
			} else if defVal := fmtDefaultVal(p.Into); defVal != "" {
				fmt.Fprintf(w, " (Default: %s)", defVal)
			}
			fmt.Fprint(w, "\n")
			if usage := p.Usage; usage != "" {
				usage = strings.TrimSpace(usage)
				if !strings.HasSuffix(usage, ".") {
					usage += "."
				}
				fmt.Fprintln(w, "\t\t"+usage)
			}
			fmt.Fprint(w, "\n")
		}
	}
}
