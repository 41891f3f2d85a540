// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/appvisor/appvisor/internal/issue"
)

// renderError writes err to w. Failures linked to a catalog entry are
// followed by the rendered entry when w is a terminal.
func renderError(w io.Writer, err error, verbose bool) {
	var f *issue.Failure
	if !errors.As(err, &f) {
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+f.Format(verbose))
	if f.Issue == 0 || !isTerminal(w) {
		return
	}
	entry := issue.Get(f.Issue)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
