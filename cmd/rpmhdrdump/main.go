/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* This file is part of Holo.
*
* Holo is free software: you can redistribute it and/or modify it under the
* terms of the GNU General Public License as published by the Free Software
* Foundation, either version 3 of the License, or (at your option) any later
* version.
*
* Holo is distributed in the hope that it will be useful, but WITHOUT ANY
* WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR
* A PARTICULAR PURPOSE. See the GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License along with
* Holo. If not, see <http://www.gnu.org/licenses/>.
*
*******************************************************************************/

// Command rpmhdrdump renders a header blob as text, either through the
// %{...} query language (spec.md §4.2) or as a full %{*:xml} dump.
//
//	rpmhdrdump < package.header
//	rpmhdrdump -f '%{NAME}-%{VERSION}-%{RELEASE}\n' < package.header
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	flag "github.com/ogier/pflag"

	"github.com/holocm/rpmcore/header"
	"github.com/holocm/rpmcore/headerfmt"
)

func main() {
	format := flag.StringP("format", "f", "%{*}", "HeaderFormat query string")
	noMagic := flag.Bool("no-magic", false, "input has no leading header.Magic prefix")
	color := flag.Bool("color", isatty.IsTerminal(os.Stdout.Fd()), "colorize the section banner")
	flag.Parse()

	var input io.Reader = os.Stdin
	if args := flag.Args(); len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	h, err := header.Read(input, !*noMagic)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := headerfmt.Eval(*format, h)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *color {
		fmt.Print("\x1b[1mheader\x1b[0m\n")
	}
	fmt.Print(out)
}
