package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/csim/cache"
	"github.com/spf13/cobra"
)

func newDecodeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex-address>...",
		Short: "Print the tag and set index of addresses.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.resolveConfig(cmd)
			if err != nil {
				return err
			}

			c, err := cache.MakeBuilder().
				WithGeometry(cfg.Geometry).
				Build("Cache")
			if err != nil {
				return err
			}

			for _, arg := range args {
				hex := strings.TrimPrefix(strings.ToLower(arg), "0x")

				addr, err := strconv.ParseUint(hex, 16, 64)
				if err != nil {
					return fmt.Errorf("bad address %q: %w", arg, err)
				}

				tag, setID := c.Decode(addr)
				fmt.Fprintf(cmd.OutOrStdout(), "0x%x tag=0x%x set=%d\n",
					addr, tag, setID)
			}

			return nil
		},
	}
}
