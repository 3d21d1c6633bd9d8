package syntax

import (
	"io"

	"github.com/sanity-io/litter"
)

// dumpOptions hides the embedded position bookkeeping and the symbol
// table's private maps so that the dump shows the tree shape only.
var dumpOptions = litter.Options{
	HidePrivateFields: true,
	StripPackageNames: true,
	Separator:         " ",
}

// FprintDump writes a Go-literal style dump of node to w.
func FprintDump(w io.Writer, node Node) error {
	_, err := io.WriteString(w, dumpOptions.Sdump(node)+"\n")
	return err
}

// SprintDump returns the dump of node as a string.
func SprintDump(node Node) string {
	return dumpOptions.Sdump(node)
}
