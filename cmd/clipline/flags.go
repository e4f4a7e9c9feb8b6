package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clipline/internal/adapter"
)

// parseOverrides turns repeated key=value flags into adapter settings.
// Values stay strings; adapters coerce what they need.
func parseOverrides(pairs []string) (adapter.Settings, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	settings := make(adapter.Settings, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q, expected key=value", pair)
		}
		settings[key] = value
	}
	return settings, nil
}

func addOverrideFlag(cmd *cobra.Command, target *[]string) {
	cmd.Flags().StringArrayVar(target, "set", nil, "Adapter setting override (key=value, repeatable)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
