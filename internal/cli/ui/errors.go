package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
)

// FormatLoadError renders a load failure for terminal output, pulling the
// structured location out of metadata errors when one is attached.
//
// Example output:
//
//	❌ MALFORMED: TypeDef[4]: coded index tag 3 has no candidate table
//	   → Check the input with: dotmeta inspect <file>
func FormatLoadError(err error, noColor bool) string {
	var b strings.Builder

	var mdErr *mderr.Error
	headerColor := color.New(color.FgRed, color.Bold)

	if errors.As(err, &mdErr) {
		header := strings.ToUpper(mdErr.Kind.String())
		if noColor {
			fmt.Fprintf(&b, "❌ %s: %s\n", header, mdErr.Error())
		} else {
			fmt.Fprintf(&b, "❌ %s: %s\n", headerColor.Sprint(header), mdErr.Error())
		}
	} else {
		if noColor {
			fmt.Fprintf(&b, "❌ %v\n", err)
		} else {
			fmt.Fprintf(&b, "❌ %s\n", headerColor.Sprintf("%v", err))
		}
	}

	b.WriteString("   → Check the input with: dotmeta inspect <file>\n")
	return b.String()
}
