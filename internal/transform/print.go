package transform

import (
	"fmt"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// PrintMode selects between --print's two output formats.
type PrintMode int

const (
	PrintDetailed PrintMode = iota
	PrintDirect
)

// Printer writes every event matching one of its keys to a sink (normally
// stdout) without otherwise affecting the stream.
type Printer struct {
	Keys    []keyfilter.Key
	Mode    PrintMode
	Domains *evmodel.NamedDomains
	Write   func(string)
}

func NewPrinter(keys []keyfilter.Key, mode PrintMode, domains *evmodel.NamedDomains, write func(string)) *Printer {
	return &Printer{Keys: keys, Mode: mode, Domains: domains, Write: write}
}

func (p *Printer) matchesAny(event evmodel.Event) bool {
	for _, key := range p.Keys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (p *Printer) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		if p.matchesAny(event) {
			p.Write(p.format(event))
		}
	}
	*out = append(*out, events...)
}

func (p *Printer) format(event evmodel.Event) string {
	if p.Mode == PrintDirect {
		return printEventDirect(event, p.Domains)
	}
	return printEventDetailed(event, p.Domains)
}

func printEventDetailed(event evmodel.Event, domains *evmodel.NamedDomains) string {
	name := ecodes.EventName(event.Code)
	var valueStr string
	if event.Code.Type.IsKey() {
		switch event.Value {
		case 0:
			valueStr = "0 (up)"
		case 1:
			valueStr = "1 (down)"
		case 2:
			valueStr = "2 (repeat)"
		default:
			valueStr = fmt.Sprintf("%d", event.Value)
		}
	} else {
		valueStr = fmt.Sprintf("%d", event.Value)
	}
	nameAndValue := fmt.Sprintf("Event:  type:code = %-13s  value = %s", name, valueStr)

	if domains != nil {
		if domainName, ok := domains.TryReverseResolve(event.Domain); ok {
			return fmt.Sprintf("%-53s  domain = %s", nameAndValue, domainName)
		}
	}
	return nameAndValue
}

func printEventDirect(event evmodel.Event, domains *evmodel.NamedDomains) string {
	name := ecodes.EventName(event.Code)
	if domains != nil {
		if domainName, ok := domains.TryReverseResolve(event.Domain); ok {
			return fmt.Sprintf("%s:%d@%s", name, event.Value, domainName)
		}
	}
	return fmt.Sprintf("%s:%d", name, event.Value)
}

func (p *Printer) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return stream.PassthroughCaps(caps)
}
