package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gotr/internal/crypto"
	"gotr/internal/domain"
	"gotr/internal/services/identity"
	"gotr/internal/store"
	"gotr/internal/util/memzero"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint FILE",
		Short: "Print identity fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, ok, err := store.NewIdentityFileStore(args[0]).LoadIdentity()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s does not exist", domain.ErrKeyFile, args[0])
			}
			defer memzero.Zero(seed)
			id, err := crypto.NewIdentityFromSeed(seed)
			if err != nil {
				return err
			}
			defer id.Erase()
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", identity.Fingerprint(id))
			return nil
		},
	}
	return cmd
}
