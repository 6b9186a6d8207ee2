package cliapp

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ProtectFlags copies the flags, so shared flag definitions are not mutated by urfave/cli while parsing.
// It panics if a flag type cannot be copied.
func ProtectFlags(flags []cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		fCopy, err := cloneFlag(f)
		if err != nil {
			panic(fmt.Errorf("failed to copy flag %q: %w", f.Names()[0], err))
		}
		out = append(out, fCopy)
	}
	return out
}

func cloneFlag(f cli.Flag) (cli.Flag, error) {
	switch typedFlag := f.(type) {
	case *cli.StringFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.BoolFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.IntFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.Uint64Flag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.DurationFlag:
		cpy := *typedFlag
		return &cpy, nil
	case *cli.StringSliceFlag:
		cpy := *typedFlag
		if typedFlag.Value != nil {
			cpy.Value = cli.NewStringSlice(typedFlag.Value.Value()...)
		}
		return &cpy, nil
	default:
		return nil, fmt.Errorf("unrecognized flag type: %T", f)
	}
}
