package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gotr/internal/app"
	"gotr/internal/crypto"
	"gotr/internal/relay"
	"gotr/internal/services/room"
)

var (
	users   int
	keyDir  string
	message string
	leave   bool
	verbose bool
)

// ErrNotConverged is returned when members end with different circle keys.
var ErrNotConverged = errors.New("members did not converge on a circle key")

type member struct {
	name string
	room *room.Room
}

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:          "gotr-sim",
		Short:        "Simulate a gotr room in one process",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if users < 2 {
				return fmt.Errorf("--users must be at least 2, got %d", users)
			}
			if keyDir != "" {
				if err := os.MkdirAll(keyDir, 0o700); err != nil {
					return err
				}
			}

			log := zap.NewNop()
			if verbose {
				dev, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer func() { _ = dev.Sync() }()
				log = dev
			}
			return run(cmd.OutOrStdout(), log)
		},
	}

	root.Flags().IntVarP(&users, "users", "n", 3, "number of members")
	root.Flags().StringVar(&keyDir, "key-dir", "", "directory for member key files (default ephemeral)")
	root.Flags().StringVarP(&message, "message", "m", "hello, circle", "chat message sent by the first member")
	root.Flags().BoolVar(&leave, "leave", false, "let the last member leave and reconverge")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log protocol transitions")

	return root.Execute()
}

func run(out io.Writer, log *zap.Logger) error {
	hub := relay.NewHub(log.Named("relay"))
	var members []member
	defer func() {
		for _, m := range members {
			_ = m.room.Leave()
		}
	}()

	for i := 1; i <= users; i++ {
		name := fmt.Sprintf("user-%d", i)
		cfg := app.Config{Handle: name, Logger: log.Named(name)}
		if keyDir != "" {
			cfg.KeyPath = filepath.Join(keyDir, name+".key")
		}

		r, err := app.Join(hub.Host(name), cfg)
		if err != nil {
			return fmt.Errorf("%s: join: %w", name, err)
		}
		members = append(members, member{name: name, room: r})
		if err := hub.Attach(name, r); err != nil {
			return err
		}
		n := hub.Flush()
		fmt.Fprintf(out, "%s joined  fingerprint=%s  records=%d\n", name, r.Fingerprint(), n)
		if i > 1 {
			if err := report(out, members); err != nil {
				return err
			}
		}
	}

	if err := members[0].room.Send([]byte(message)); err != nil {
		return fmt.Errorf("%s: send: %w", members[0].name, err)
	}
	hub.Flush()
	for _, m := range members[1:] {
		for _, d := range hub.Inbox(m.name) {
			fmt.Fprintf(out, "%s <- %s: %s\n", m.name, d.From, d.Plaintext)
		}
	}

	if leave {
		last := members[len(members)-1]
		if err := hub.Detach(last.name); err != nil {
			return err
		}
		_ = last.room.Leave()
		members = members[:len(members)-1]
		n := hub.Flush()
		fmt.Fprintf(out, "%s left  records=%d\n", last.name, n)
		if len(members) > 1 {
			if err := report(out, members); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "dropped records: %d\n", hub.Dropped())
	return nil
}

// report prints a digest of each member's circle key and checks they agree.
func report(out io.Writer, members []member) error {
	var first []byte
	for _, m := range members {
		key, ok := m.room.CircleKey()
		if !ok {
			fmt.Fprintf(out, "  %s  no circle key\n", m.name)
			return fmt.Errorf("%w: %s has no key", ErrNotConverged, m.name)
		}
		d := crypto.Digest([]byte("gotr-sim"), key[:])
		fmt.Fprintf(out, "  %s  circle=%x\n", m.name, d[:8])
		if first == nil {
			first = d[:]
		} else if !bytes.Equal(first, d[:]) {
			return ErrNotConverged
		}
	}
	return nil
}
