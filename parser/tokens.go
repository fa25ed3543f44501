// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

// cur returns the token at the current cursor position without advancing.
func (p *Parser) cur() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

// peek returns the token n positions ahead of the cursor without advancing.
func (p *Parser) peek(n int) token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[idx]
}

// next advances the cursor and returns the token that was current before advancing.
func (p *Parser) next() token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// isKeyword reports whether the current token is an identifier matching kw, case-insensitively.
func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokIdent && t.lower() == kw
}

// isSymbol reports whether the current token is the given operator/punctuation symbol.
func (p *Parser) isSymbol(sym string) bool {
	t := p.cur()
	return t.kind == tokSymbol && t.text == sym
}

// matchKeyword consumes the current token if it is the given keyword, returning whether it did.
func (p *Parser) matchKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.next()
		return true
	}
	return false
}

// matchSymbol consumes the current token if it is the given symbol, returning whether it did.
func (p *Parser) matchSymbol(sym string) bool {
	if p.isSymbol(sym) {
		p.next()
		return true
	}
	return false
}

// expectSymbol consumes the current token if it is the given symbol, reporting an error otherwise.
func (p *Parser) expectSymbol(sym string) bool {
	if p.matchSymbol(sym) {
		return true
	}
	p.reportError("expected '"+sym+"'", p.cur())
	return false
}

// expectKeyword consumes the current token if it is the given keyword, reporting an error
// otherwise.
func (p *Parser) expectKeyword(kw string) bool {
	if p.matchKeyword(kw) {
		return true
	}
	p.reportError("expected '"+kw+"'", p.cur())
	return false
}

// parseIdentifier consumes and returns an identifier-like token's text (plain or quoted).
func (p *Parser) parseIdentifier() (string, bool) {
	t := p.cur()
	if t.kind == tokIdent || t.kind == tokQuotedIdent {
		p.next()
		return t.text, true
	}
	p.reportError("expected identifier", t)
	return "", false
}

// parseQualifiedIdentifier consumes a dot-separated sequence of identifiers, such as a library or
// model name, and returns the full dotted text.
func (p *Parser) parseQualifiedIdentifier() string {
	name, ok := p.parseIdentifier()
	if !ok {
		return ""
	}
	for p.isSymbol(".") {
		p.next()
		next, ok := p.parseIdentifier()
		if !ok {
			break
		}
		name += "." + next
	}
	return name
}

// skipToSemicolonOrKeyword advances past tokens until a top-level ';' or EOF is found, consuming
// the ';' if present. Used to recover after a statement-level parse error.
func (p *Parser) skipToSemicolonOrKeyword() {
	depth := 0
	for {
		t := p.cur()
		if t.kind == tokEOF {
			return
		}
		if t.kind == tokSymbol {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					p.next()
					return
				}
			}
		}
		p.next()
	}
}
