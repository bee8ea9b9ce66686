/*******************************************************************************
*
* Copyright 2016-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

package headerfmt

import "fmt"

// FormatError is returned for any malformed format string: unknown tag,
// unterminated "%{", "[", "|" or "?".
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

func formatErrf(format string, args ...interface{}) error {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// node is one element of a parsed Fmt. The concrete types are litNode,
// tagNode, arrayNode and condNode.
type node interface{}

type litNode struct {
	text string
}

type tagNode struct {
	pad       int
	sel       byte // 0, '=' (first element only) or '#' (element count)
	tagName   string
	formatter string
}

type arrayNode struct {
	body []node
}

type condNode struct {
	tagName   string
	thenBody  []node
	elseBody  []node // nil if the Cond had no else-branch
}

// parser turns a token stream into a slice of nodes. It never looks more
// than one token ahead.
type parser struct {
	lex     *lexer
	lookhead *token
}

func (p *parser) peek() token {
	if p.lookhead == nil {
		t := p.lex.next()
		p.lookhead = &t
	}
	return *p.lookhead
}

func (p *parser) next() token {
	t := p.peek()
	p.lookhead = nil
	return t
}

// parseFmt consumes tokens until EOF or a token of kind stop (which is left
// unconsumed for the caller to check).
func (p *parser) parseFmt(stop tokenKind) ([]node, error) {
	var nodes []node
	for {
		tok := p.peek()
		if tok.kind == tokEOF || tok.kind == stop {
			return nodes, nil
		}
		switch tok.kind {
		case tokLiteral:
			p.next()
			nodes = append(nodes, &litNode{text: tok.text})
		case tokPercent:
			p.next()
			n, err := p.parsePercent()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case tokLBracket:
			p.next()
			body, err := p.parseFmt(tokRBracket)
			if err != nil {
				return nil, err
			}
			if p.next().kind != tokRBracket {
				return nil, formatErrf("unterminated '['")
			}
			nodes = append(nodes, &arrayNode{body: body})
		case tokStarEquals:
			// one-shot array marker; nothing downstream of this build
			// distinguishes it from a plain iteration, so it is consumed
			// and otherwise ignored.
			p.next()
		default:
			// a structural rune with no meaning at this position (e.g. a
			// stray '}' outside any "%{...}"): pass it through literally.
			p.next()
			nodes = append(nodes, &litNode{text: controlRuneText(tok.kind)})
		}
	}
}

// parsePercent is called right after a tokPercent has been consumed.
func (p *parser) parsePercent() (node, error) {
	if p.peek().kind == tokPipe {
		return p.parseCond()
	}
	return p.parseSpec()
}

func (p *parser) parseSpec() (node, error) {
	pad := 0
	sel := byte(0)

	if tok := p.peek(); tok.kind == tokLiteral {
		n, ok := parsePadDigits(tok.text)
		if !ok {
			return nil, formatErrf("invalid padding %q in format spec", tok.text)
		}
		pad = n
		p.next()
	}

	switch p.peek().kind {
	case tokEquals:
		sel = '='
		p.next()
	case tokHash:
		sel = '#'
		p.next()
	}

	if p.next().kind != tokLBrace {
		return nil, formatErrf("expected '{' in format spec")
	}

	nameTok := p.next()
	if nameTok.kind != tokLiteral || nameTok.text == "" {
		return nil, formatErrf("expected tag name in format spec")
	}

	formatter := ""
	if p.peek().kind == tokColon {
		p.next()
		ft := p.next()
		if ft.kind != tokLiteral || ft.text == "" {
			return nil, formatErrf("expected formatter name after ':'")
		}
		formatter = ft.text
	}

	if p.next().kind != tokRBrace {
		return nil, formatErrf("unterminated '%%{'")
	}

	return &tagNode{pad: pad, sel: sel, tagName: nameTok.text, formatter: formatter}, nil
}

// parseCond is called right after "%" has been consumed and the lookahead
// token is the "|" that opens a Cond.
func (p *parser) parseCond() (node, error) {
	p.next() // consume the leading '|'

	nameTok := p.next()
	if nameTok.kind != tokLiteral || nameTok.text == "" {
		return nil, formatErrf("expected tag name in conditional")
	}
	if p.next().kind != tokQuestion {
		return nil, formatErrf("expected '?' in conditional")
	}
	if p.next().kind != tokLBrace {
		return nil, formatErrf("expected '{' in conditional")
	}
	thenBody, err := p.parseFmt(tokRBrace)
	if err != nil {
		return nil, err
	}
	if p.next().kind != tokRBrace {
		return nil, formatErrf("unterminated conditional then-branch")
	}

	var elseBody []node
	if p.peek().kind == tokColon {
		p.next()
		if p.next().kind != tokLBrace {
			return nil, formatErrf("expected '{' in conditional else-branch")
		}
		elseBody, err = p.parseFmt(tokRBrace)
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRBrace {
			return nil, formatErrf("unterminated conditional else-branch")
		}
	}

	if p.next().kind != tokPipe {
		return nil, formatErrf("unterminated conditional")
	}

	return &condNode{tagName: nameTok.text, thenBody: thenBody, elseBody: elseBody}, nil
}

func parsePadDigits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func controlRuneText(kind tokenKind) string {
	switch kind {
	case tokRBracket:
		return "]"
	case tokRBrace:
		return "}"
	case tokPipe:
		return "|"
	case tokColon:
		return ":"
	case tokQuestion:
		return "?"
	case tokEquals:
		return "="
	case tokHash:
		return "#"
	default:
		return ""
	}
}

// parse runs a parser over format and checks that it consumed the entire
// input.
func parse(format string) ([]node, error) {
	p := &parser{lex: newLexer(format)}
	nodes, err := p.parseFmt(tokEOF)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, formatErrf("unexpected trailing characters in format string")
	}
	return nodes, nil
}
