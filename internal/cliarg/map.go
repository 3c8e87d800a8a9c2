package cliarg

import (
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/transform"
)

// compileMap implements both --map and --copy: copy is a map whose first
// output key is an identity copy of the input event.
func compileMap(g Group, copy bool) (transform.Map, error) {
	keyStrs, err := g.RequireKeys()
	if err != nil {
		return transform.Map{}, err
	}

	inputKey, err := (keyfilter.Parser{
		AllowTransitions: true,
		AllowRanges:      true,
		Namespace:        evmodel.NamespaceUser,
	}).Parse(keyStrs[0])
	if err != nil {
		return transform.Map{}, err
	}

	outputNamespace := evmodel.NamespaceUser
	if g.HasFlag("yield") {
		outputNamespace = evmodel.NamespaceYielded
	}
	outputKeys, err := (keyfilter.Parser{Namespace: outputNamespace}).ParseAll(keyStrs[1:])
	if err != nil {
		return transform.Map{}, err
	}
	if copy {
		outputKeys = append([]keyfilter.Key{keyfilter.Copy()}, outputKeys...)
	}

	return transform.Map{InputKey: inputKey, OutputKeys: outputKeys}, nil
}

func compileBlock(g Group) ([]transform.Map, error) {
	keyStrs := g.KeysOrEmptyKey()
	parser := keyfilter.Parser{AllowRanges: true, AllowTransitions: true, Namespace: evmodel.NamespaceUser}
	keys, err := parser.ParseAll(keyStrs)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, evserror.NewInternal("--block produced no keys even with its default-key fallback")
	}
	maps := make([]transform.Map, len(keys))
	for i, k := range keys {
		maps[i] = transform.NewBlock(k)
	}
	return maps, nil
}
