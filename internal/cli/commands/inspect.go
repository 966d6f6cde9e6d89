package commands

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotmeta-dev/dotmeta/internal/cli/config"
	"github.com/dotmeta-dev/dotmeta/internal/cli/ui"
	"github.com/dotmeta-dev/dotmeta/metadata"
	"github.com/dotmeta-dev/dotmeta/metadata/loader"
	"github.com/dotmeta-dev/dotmeta/metadata/registry"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	var (
		workers   int
		showTrace bool
		strict    bool
		tableName string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a metadata file and summarize its contents",
		Long: `Parse a metadata region, resolve every table in dependency order, and
print the container version, heap sizes, and per-table row counts.
With --table, dump the resolved rows of one table instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := config.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			opts := []metadata.Option{
				metadata.WithWorkers(workers),
				metadata.WithLogger(log),
			}
			if strict {
				opts = append(opts, metadata.WithStrict())
			}

			f, err := metadata.LoadFile(args[0], opts...)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.FormatLoadError(err, false))
				return err
			}

			if tableName != "" {
				return dumpTable(cmd, f, tableName)
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			titleColor.Fprintf(cmd.OutOrStdout(), "Version: ")
			fmt.Fprintln(cmd.OutOrStdout(), f.Root.Version)
			titleColor.Fprintf(cmd.OutOrStdout(), "Heaps:   ")
			fmt.Fprintf(cmd.OutOrStdout(), "strings=%dB guids=%dB blobs=%dB\n\n",
				f.Heaps.Strings.Size(), f.Heaps.GUIDs.Size(), f.Heaps.Blobs.Size())

			table := ui.NewTable(cmd.OutOrStdout(), []string{"TABLE", "ID", "ROWS", "ENTITIES"}, nil)
			for _, id := range f.Stream.Present() {
				table.AddRow(
					id.String(),
					fmt.Sprintf("0x%02X", uint8(id)),
					strconv.FormatUint(uint64(f.Stream.RowCount(id)), 10),
					strconv.Itoa(f.Registry.Count(id)),
				)
			}
			table.Render()

			if showTrace {
				fmt.Fprintln(cmd.OutOrStdout())
				titleColor.Fprintln(cmd.OutOrStdout(), "Load schedule:")
				for i, level := range f.Levels() {
					fmt.Fprintf(cmd.OutOrStdout(), "  level %d:", i)
					for _, id := range level {
						fmt.Fprintf(cmd.OutOrStdout(), " %s", id)
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent loaders and row decoders (0 = number of CPUs)")
	cmd.Flags().BoolVar(&showTrace, "schedule", false, "Print the dependency levels the load executed")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject unrecognized streams and trailing table bytes")
	cmd.Flags().StringVar(&tableName, "table", "", "Dump the rows of one table (e.g. TypeDef)")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	return cmd
}

// dumpTable prints one table's resolved rows, token first.
func dumpTable(cmd *cobra.Command, f *metadata.File, name string) error {
	id, ok := token.ParseTableID(name)
	if !ok {
		return fmt.Errorf("unknown table %q", name)
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Fprintf(cmd.OutOrStdout(), "%s: ", id)
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n\n", f.Registry.Count(id))

	table := ui.NewTable(cmd.OutOrStdout(), []string{"TOKEN", "NAME", "DETAIL"}, nil)
	for _, e := range f.Registry.Table(id) {
		name, detail := describeEntity(e)
		table.AddRow(e.Token().String(), name, detail)
	}
	table.Render()
	return nil
}

// describeEntity returns a display name and a short per-kind detail line
// for one resolved entity.
func describeEntity(e registry.Entity) (name, detail string) {
	switch v := e.(type) {
	case *loader.Module:
		return v.Name, fmt.Sprintf("mvid=%X", v.Mvid)
	case *loader.ModuleRef:
		return v.Name, ""
	case *loader.Assembly:
		return v.Name, fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	case *loader.AssemblyRef:
		return v.Name, fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	case *loader.TypeRef:
		return qualifiedName(v.Namespace, v.Name), fmt.Sprintf("scope=%s", v.ScopeToken)
	case *loader.TypeDef:
		return qualifiedName(v.Namespace, v.Name), fmt.Sprintf("fields=%d", len(v.Fields))
	case *loader.Field:
		return v.Name, fmt.Sprintf("flags=0x%04X", v.Flags)
	case *loader.FieldPtr:
		return "", fmt.Sprintf("target=%s", v.Target.Token())
	case *loader.Param:
		return v.Name, fmt.Sprintf("sequence=%d", v.Sequence)
	case *loader.Property:
		return v.Name, fmt.Sprintf("flags=0x%04X", v.Flags)
	case *loader.Constant:
		return "", fmt.Sprintf("parent=%s type=0x%02X", v.ParentToken, v.Value.Type)
	case *loader.ClassLayout:
		return "", fmt.Sprintf("parent=%s pack=%d size=%d", v.Parent.Token(), v.Info.PackingSize, v.Info.ClassSize)
	case *loader.FieldLayout:
		return "", fmt.Sprintf("field=%s offset=%d", v.Field.Token(), v.ByteOffset)
	case *loader.NestedClass:
		return "", fmt.Sprintf("nested=%s enclosing=%s", v.Nested.Token(), v.Enclosing.Token())
	default:
		return "", ""
	}
}

func qualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
