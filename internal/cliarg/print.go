package cliarg

import (
	"fmt"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/transform"
)

func compilePrint(g Group, domains *evmodel.NamedDomains) (*transform.Printer, error) {
	keys, err := (keyfilter.Parser{
		AllowRanges:      true,
		AllowTransitions: true,
		Namespace:        evmodel.NamespaceUser,
	}).ParseAll(g.KeysOrEmptyKey())
	if err != nil {
		return nil, err
	}

	mode := transform.PrintDetailed
	if formatStr, ok, err := g.UniqueClause("format"); err != nil {
		return nil, err
	} else if ok {
		switch formatStr {
		case "direct":
			mode = transform.PrintDirect
		case "default":
			mode = transform.PrintDetailed
		default:
			return nil, evserror.NewArgument("invalid --print format: %q", formatStr)
		}
	}

	return transform.NewPrinter(keys, mode, domains, printLine), nil
}

func printLine(line string) {
	fmt.Println(line)
}
