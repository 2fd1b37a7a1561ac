package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kjk/appregistry/backup"
	"github.com/kjk/appregistry/journalstore"
	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regstore"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

// jsonValue returns v in a form that reads well in json and toon
func jsonValue(v regstore.Value) any {
	if v.Kind == regstore.KindBinary {
		return hex.EncodeToString(v.Bin)
	}
	return v.Interface()
}

func entryRows(entries regstore.Entries) []map[string]any {
	var res []map[string]any
	for _, name := range entries.Names() {
		v := entries[name]
		res = append(res, map[string]any{
			"name":  name,
			"kind":  v.Kind.String(),
			"value": jsonValue(v),
		})
	}
	return res
}

func writeEntries(w io.Writer, entries regstore.Entries, format string) error {
	switch format {
	case "text":
		for _, name := range entries.Names() {
			v := entries[name]
			fmt.Fprintf(w, "%s (%s) = %s\n", name, v.Kind, v)
		}
		return nil
	case "json":
		d, err := json.Marshal(entryRows(entries))
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty(d))
		return err
	case "toon":
		d, err := toon.Marshal(map[string]any{"entries": entryRows(entries)})
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		if err == nil && len(d) > 0 && d[len(d)-1] != '\n' {
			_, err = io.WriteString(w, "\n")
		}
		return err
	}
	return fmt.Errorf("unknown format '%s', must be text, json or toon", format)
}

// parseValue parses s as a value of kind
// binary values are hex encoded
func parseValue(kind regstore.Kind, s string) (regstore.Value, error) {
	switch kind {
	case regstore.KindString:
		return regstore.StringValue(s), nil
	case regstore.KindDWord:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.DWordValue(int32(n)), nil
	case regstore.KindQWord:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.QWordValue(n), nil
	case regstore.KindBinary:
		d, err := hex.DecodeString(s)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.BinaryValue(d), nil
	}
	return regstore.Value{}, fmt.Errorf("can't parse value of kind %s", kind)
}

func (c *cli) listCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List entries of settings type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := regstore.ReadAll(c.store, c.path(args[0]))
			if err != nil {
				return err
			}
			return writeEntries(cmd.OutOrStdout(), entries, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or toon")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <name>",
		Short: "Print value of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := c.store.Open(c.path(args[0]), false)
			if err != nil {
				return err
			}
			defer k.Close()
			v, err := k.GetValue(args[1], regstore.Value{})
			if err != nil {
				return err
			}
			if v.IsAbsent() {
				return fmt.Errorf("entry '%s' doesn't exist", args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", v)
			return nil
		},
	}
}

func (c *cli) setCmd() *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "set <type> <name> <value>",
		Short: "Create or over-write an entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			kind, err := regstore.ParseKind(kindName)
			if err != nil {
				return err
			}
			v, err := parseValue(kind, args[2])
			if err != nil {
				return fmt.Errorf("invalid %s value '%s': %w", kind, args[2], err)
			}
			path := c.path(args[0])
			k, err := c.store.Open(path, true)
			if err != nil {
				return err
			}
			defer func() {
				if errClose := k.Close(); err == nil {
					err = errClose
				}
			}()
			if err = k.SetValue(args[1], v); err != nil {
				return err
			}
			log.Event("cli.set", "path", path, "name", args[1], "kind", kind.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "string", "kind of value: string, dword, qword or binary (hex)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <type> <file>",
		Short: "Export entries to a file (.gz, .zst, .br are compressed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := backup.Export(c.store, c.path(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", n, args[1])
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <type> <file>",
		Short: "Import entries from a file created with export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := backup.Import(c.store, c.path(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries from %s\n", n, args[1])
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <type> <name>",
		Short: "Print all values ever written to an entry (journal store only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			js, ok := c.store.(*journalstore.Store)
			if !ok {
				return errors.New("history is only available with journal backend")
			}
			changes, err := js.History(c.path(args[0]), args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, ch := range changes {
				fmt.Fprintf(w, "%s %s\n", ch.Time.Format("2006-01-02 15:04:05.000"), ch.Value)
			}
			return nil
		},
	}
}
