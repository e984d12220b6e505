package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reoring/msgskema/document"
	"github.com/reoring/msgskema/jsonschema"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema>...",
		Short: "Validate schema documents",
		Long: `Validate one or more schema documents.

Checks:
  - Document syntax is valid
  - Names, ids and group type keys are unique
  - Super-groups and references resolve without cycles
  - No sequence of sequences

Examples:
  msgskema validate schema.yaml
  msgskema validate v1.json v2.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				s, err := a.loadSchema(path)
				if err != nil {
					failed++
					fmt.Fprintf(a.out, "  %s %s\n      %v\n", crossMark, path, err)
					continue
				}
				fmt.Fprintf(a.out, "  %s %s (%d groups, %d named types)\n", checkMark, path, len(s.Groups()), len(s.NamedTypes()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schemas invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newGroupsCmd(a *app) *cobra.Command {
	var dynamic string
	cmd := &cobra.Command{
		Use:   "groups <schema>",
		Short: "List groups in dependency order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			groups := s.Groups()
			if dynamic != "" {
				if _, ok := s.Group(dynamic); !ok {
					return fmt.Errorf("unknown group %q", dynamic)
				}
				groups = s.DynamicGroups(dynamic)
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tID\tSUPER\tFIELDS")
			for _, g := range groups {
				id := "-"
				if g.HasID() {
					id = fmt.Sprint(g.ID())
				}
				super := g.Super()
				if super == "" {
					super = "-"
				}
				name := strings.Repeat("  ", s.Depth(g.Name())) + g.Name()
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", name, id, super, len(s.AllFields(g)))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dynamic, "dynamic", "", "only list this group and its sub-groups")
	return cmd
}

func newAssignIDsCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "assign-ids <schema>",
		Short: "Derive missing group ids from group names",
		Long: `Assign an id to every group that has none, derived from a hash of the
group name. Fails when derived ids collide.

Examples:
  msgskema assign-ids schema.yaml
  msgskema assign-ids schema.yaml -o schema.ids.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			s, err = s.AssignGroupIDs()
			if err != nil {
				return err
			}
			d := document.FromSchema(s)
			if output != "" {
				if err := d.Save(output); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "  %s wrote %s\n", checkMark, output)
				return nil
			}
			data, err := d.YAML()
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file (.json, .yaml)")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a schema document between JSON and YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == args[1] {
				return errors.New("input and output are the same file")
			}
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			if err := document.FromSchema(s).Save(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "  %s wrote %s\n", checkMark, args[1])
			return nil
		},
	}
}

func newJSONSchemaCmd(a *app) *cobra.Command {
	var (
		group  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "jsonschema <schema>",
		Short: "Export a schema as JSON Schema",
		Long: `Export every group and named type as a JSON Schema definition. With
--group the root references that group.

Examples:
  msgskema jsonschema schema.yaml
  msgskema jsonschema schema.yaml --group Quote -o quote.schema.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			var js *jsonschema.Schema
			if group != "" {
				js, err = jsonschema.ExportGroup(s, group)
			} else {
				js, err = jsonschema.Export(s)
			}
			if err != nil {
				return err
			}
			data, err := jsonschema.Marshal(js)
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "  %s wrote %s\n", checkMark, output)
				return nil
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "root the export at this group")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file")
	return cmd
}
