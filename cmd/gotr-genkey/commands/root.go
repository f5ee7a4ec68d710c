package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gotr/internal/crypto"
	"gotr/internal/services/identity"
	"gotr/internal/store"
	"gotr/internal/util/memzero"
)

var force bool

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:          "gotr-genkey FILE",
		Short:        "Generate a gotr identity key file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := crypto.Init()
			if err != nil {
				return err
			}
			seed, fp, err := identity.New(p, nil).Generate()
			if err != nil {
				return err
			}
			defer memzero.Zero(seed)

			ks := store.NewIdentityFileStore(args[0])
			if force {
				err = ks.SaveIdentity(seed)
			} else {
				err = ks.CreateIdentity(seed)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity written to %s\nFingerprint: %s\n", args[0], fp)
			return nil
		},
	}

	root.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing key file")

	root.AddCommand(fingerprintCmd())
	return root.Execute()
}
