// Package util holds small formatting helpers shared by cmd/keyforge.
// It has no knowledge of sessions, vaults, or key material — it only
// knows how to turn a value into bytes on a writer.
package util

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/keyforge/keyforge/internal/corefail"
)

// OutputResult renders a generated key, vault listing, or export
// container under the CLI's --format flag. Every keyforge subcommand
// that prints a result (generate, vault list, export, recover, ...)
// routes through this one function so the supported formats stay in
// sync as the result types grow.
//
// Supported formats:
//   - "json": indented JSON via encoding/json
//   - "yaml": YAML via gopkg.in/yaml.v3
//   - "toml": not implemented — no dependency in this module covers
//     it, so this returns a corefail.InvalidFormat error rather than
//     guessing at one
//
// An unrecognized format string is also a corefail.InvalidFormat error,
// not a panic, since format comes straight from CLI input.
func OutputResult(data any, format string, out io.Writer) error {
	switch format {
	case "json":
		return outputJSON(data, out)
	case "yaml":
		return outputYAML(data, out)
	case "toml":
		return corefail.New(corefail.InvalidFormat, "util.OutputResult", fmt.Errorf("toml output is not implemented"))
	default:
		return corefail.New(corefail.InvalidFormat, "util.OutputResult", fmt.Errorf("unsupported format %q", format))
	}
}

func outputJSON(data any, out io.Writer) error {
	serialized, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return corefail.New(corefail.InvalidFormat, "util.outputJSON", err)
	}
	if _, err := out.Write(serialized); err != nil {
		return corefail.New(corefail.Io, "util.outputJSON", err)
	}
	return nil
}

func outputYAML(data any, out io.Writer) error {
	serialized, err := yaml.Marshal(data)
	if err != nil {
		return corefail.New(corefail.InvalidFormat, "util.outputYAML", err)
	}
	if _, err := out.Write(serialized); err != nil {
		return corefail.New(corefail.Io, "util.outputYAML", err)
	}
	return nil
}
