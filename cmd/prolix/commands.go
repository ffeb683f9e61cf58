package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/i5heu/prolix/internal/filler"
	"github.com/i5heu/prolix/internal/words"
	"github.com/spf13/cobra"
)

// readInput returns the contents of path, the joined args, or stdin, in that
// order of preference.
func (g *globalOptions) readInput(path string, args []string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("error reading input: %w", err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(g.stdin)
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return string(data), nil
}

// obscureSubcommand returns the obscure [cobra.Command].
func obscureSubcommand(g *globalOptions) *cobra.Command {
	var (
		ttl     int
		inPath  string
		outPath string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "obscure [text...]",
		Short: "Obscure text and store its padding descriptor",
		Long: "Obscure text given as arguments, with --in, or on stdin. Prints the key " +
			"needed to clarify it later followed by the obscured text.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := g.readInput(inPath, args)
			if err != nil {
				return err
			}

			p, _, _, err := g.open()
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Obscure(cmd.Context(), text, ttl)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(g.stdout).Encode(res)
			}

			fmt.Fprintf(g.stdout, "key: %s\n", res.Key)
			fmt.Fprintf(g.stdout, "expires_in: %ds\n", res.ExpirationSeconds)
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(res.ObscuredText), 0o600); err != nil {
					return fmt.Errorf("error writing obscured text: %w", err)
				}
				return nil
			}
			fmt.Fprintln(g.stdout, res.ObscuredText)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&ttl, "ttl", 0, "seconds the descriptor is kept (default from config)")
	flags.StringVar(&inPath, "in", "", "read the clear text from this file")
	flags.StringVar(&outPath, "out", "", "write the obscured text to this file")
	flags.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// clarifySubcommand returns the clarify [cobra.Command].
func clarifySubcommand(g *globalOptions) *cobra.Command {
	var (
		key    string
		inPath string
	)

	cmd := &cobra.Command{
		Use:   "clarify --key KEY [obscured text]",
		Short: "Recover the clear text of an obscured text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := g.readInput(inPath, args)
			if err != nil {
				return err
			}
			// obscured text never ends in a line break; drop the one editors and
			// shells append
			text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")

			p, _, _, err := g.open()
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Clarify(cmd.Context(), key, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(g.stdout, res.ClarifiedText)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&key, "key", "", "key printed by obscure")
	flags.StringVar(&inPath, "in", "", "read the obscured text from this file")
	return cmd
}

// forgetSubcommand returns the forget [cobra.Command].
func forgetSubcommand(g *globalOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "forget --key KEY",
		Short: "Delete a padding descriptor before it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, _, err := g.open()
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.Forget(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(g.stdout, "forgot %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "key printed by obscure")
	return cmd
}

// genkeySubcommand returns the genkey [cobra.Command].
func genkeySubcommand(g *globalOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Print keys in the format obscure uses, without storing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("--count must be at least 1")
			}
			lookup, err := filler.DefaultLookup()
			if err != nil {
				return err
			}
			dict, err := words.Default()
			if err != nil {
				return err
			}
			keys := words.NewKeyGenerator(dict, filler.New(lookup))
			for i := 0; i < count; i++ {
				fmt.Fprintln(g.stdout, keys.Password())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of keys to print")
	return cmd
}
