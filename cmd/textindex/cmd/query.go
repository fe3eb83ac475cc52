package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

func newQueryCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <word> <paths...>",
		Short: "Index paths once and print the files containing word",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			word, paths := args[0], args[1:]
			if err := a.indexAll(ctx, paths); err != nil {
				return err
			}

			matches := a.engine.Query(ctx, word)
			if len(matches) == 0 {
				return apperrors.Newf(apperrors.ErrNotIndexed, "no files contain the word %q", word)
			}
			out := cmd.OutOrStdout()
			for _, m := range matches {
				fmt.Fprintln(out, m)
			}
			return nil
		},
	}
}
