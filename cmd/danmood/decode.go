package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"danmood/internal/adapters/ingest/bili"
	"danmood/internal/core/dmseg"
	perr "danmood/internal/platform/errors"
)

func newDecodeCmd() *cobra.Command {
	var (
		asJSON bool
		asXML  bool
	)
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a saved seg.so segment (or list.so XML) and print its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read %s", args[0])
			}
			var cs []dmseg.Comment
			if asXML || strings.EqualFold(filepath.Ext(args[0]), ".xml") {
				if cs, err = bili.ParseXML(bytes.NewReader(b)); err != nil {
					return err
				}
			} else {
				cs = dmseg.Decode(b)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if cs == nil {
					cs = []dmseg.Comment{}
				}
				return json.NewEncoder(out).Encode(cs)
			}
			for _, c := range cs {
				if _, err := fmt.Fprintf(out, "%9.3f  %s\n", c.Time, c.Text); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d comments\n", len(cs))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	cmd.Flags().BoolVar(&asXML, "xml", false, "parse list.so XML instead of seg.so protobuf")
	return cmd
}
