// Package parser provides parsing of map queries into an AST.
//
// # Usage
//
//	req, err := parser.Parse(`node["amenity"="drinking_water"];out;`)
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the query language:
//
//	request    → metadata? statement+
//	metadata   → "[" "out" ":" format "]" ("[" "timeout" ":" INT "]")? ";"
//	statement  → entity | traverse | union | output
//	entity     → kind ("." name)? (selector | filter)* assign? ";"
//	kind       → "node" | "way" | "relation" | "area" | "nwr"
//	selector   → "[" "!"? key "]" | "[" key op value "]"
//	op         → "=" | "!=" | "~" | "!~"
//	filter     → "(" (bbox | poly | id | id_list | area | around) ")"
//	bbox       → number "," number "," number "," number
//	poly       → "poly" ":" STRING
//	id_list    → "id" ":" INT ("," INT)*
//	area       → "area" "." name
//	around     → "around" "." name ":" number
//	traverse   → ("." name)? ("<" | "<<" | ">" | ">>") assign? ";"
//	union      → "(" statement+ ")" assign? ";"
//	output     → ("." name)? "out" modifier* ";"
//	modifier   → "geom" | "center" | "bb" | "ids" | "skel" | "body" | "tags" | "meta"
//	assign     → "->" "." name
//
// All keywords are contextual: the lexer emits them as plain identifiers
// and the parser gives them meaning by position. Output statements are
// not permitted inside unions.
package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/overpassql/pkg/token"
)

// Parser parses a map query into a Request.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given query text.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the query text and returns the request AST.
func Parse(input string) (*Request, error) {
	p := NewParser(input)
	req := p.parseRequest()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return req, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), strconv.Quote(t.String())))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &SyntaxError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return strconv.Quote(tok.Literal)
}

// isKind returns true if the literal names an entity kind.
func isKind(lit string) bool {
	switch Kind(lit) {
	case KindNode, KindWay, KindRelation, KindArea, KindAny:
		return true
	}
	return false
}

// isTraversal returns true if the token type is a traversal operator.
func isTraversal(t token.TokenType) bool {
	switch t {
	case token.LT, token.LTLT, token.GT, token.GTGT:
		return true
	}
	return false
}

// ---------- Request ----------

func (p *Parser) parseRequest() *Request {
	req := &Request{}

	if p.check(token.LBRACKET) {
		req.Metadata = p.parseMetadata()
		if req.Metadata == nil {
			return req
		}
	}

	for !p.check(token.EOF) {
		stmt := p.parseStatement(false)
		if stmt == nil {
			return req
		}
		req.Statements = append(req.Statements, stmt)
	}

	if len(req.Statements) == 0 {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a statement"))
	}
	return req
}

// parseMetadata parses the leading [out:...][timeout:N]; clause.
func (p *Parser) parseMetadata() *Metadata {
	m := &Metadata{}

	p.nextToken() // consume [
	if !p.check(token.IDENT) || p.token.Literal != "out" {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), `"out"`))
		return nil
	}
	p.nextToken()
	if !p.expect(token.COLON) {
		return nil
	}
	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "an output format"))
		return nil
	}
	m.Format = p.token.Literal
	p.nextToken()
	if !p.expect(token.RBRACKET) {
		return nil
	}

	if p.check(token.LBRACKET) {
		p.nextToken()
		if !p.check(token.IDENT) || p.token.Literal != "timeout" {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), `"timeout"`))
			return nil
		}
		p.nextToken()
		if !p.expect(token.COLON) {
			return nil
		}
		if !p.check(token.INT) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a timeout in seconds"))
			return nil
		}
		seconds, err := strconv.ParseInt(p.token.Literal, 10, 64)
		if err != nil {
			p.addError(fmt.Sprintf(ErrTimeoutValue, p.token.Literal))
			return nil
		}
		m.Timeout = &seconds
		p.nextToken()
		if !p.expect(token.RBRACKET) {
			return nil
		}
	}

	if !p.expect(token.SEMICOLON) {
		return nil
	}
	return m
}

// ---------- Statements ----------

// parseStatement parses one statement. Output statements are rejected
// when inUnion is set.
func (p *Parser) parseStatement(inUnion bool) Statement {
	switch {
	case p.check(token.LPAREN):
		return p.parseUnion()

	case isTraversal(p.token.Type):
		return p.parseTraverse("")

	case p.check(token.DOT):
		p.nextToken()
		name, ok := p.parseName()
		if !ok {
			return nil
		}
		if isTraversal(p.token.Type) {
			return p.parseTraverse(name)
		}
		if p.check(token.IDENT) && p.token.Literal == "out" {
			if inUnion {
				p.addError(ErrOutInUnion)
				return nil
			}
			return p.parseOut(name)
		}
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), `"out" or a traversal operator`))
		return nil

	case p.check(token.IDENT):
		if p.token.Literal == "out" {
			if inUnion {
				p.addError(ErrOutInUnion)
				return nil
			}
			return p.parseOut("")
		}
		if isKind(p.token.Literal) {
			return p.parseEntityQuery()
		}
		p.addError(fmt.Sprintf(ErrUnknownKind, p.token.Literal))
		return nil

	case p.check(token.ILLEGAL):
		p.addError(fmt.Sprintf(ErrIllegalToken, p.token.Literal))
		return nil

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a statement"))
		return nil
	}
}

func (p *Parser) parseEntityQuery() Statement {
	q := &EntityQuery{Kind: Kind(p.token.Literal)}
	p.nextToken()

	if p.check(token.DOT) {
		p.nextToken()
		name, ok := p.parseName()
		if !ok {
			return nil
		}
		q.Source = name
	}

	for {
		if p.check(token.LBRACKET) {
			sel := p.parseSelector()
			if sel == nil {
				return nil
			}
			q.Selectors = append(q.Selectors, sel)
			continue
		}
		if p.check(token.LPAREN) {
			f := p.parseFilter()
			if f == nil {
				return nil
			}
			q.Filters = append(q.Filters, f)
			continue
		}
		break
	}

	assign, ok := p.parseAssign()
	if !ok {
		return nil
	}
	q.Assign = assign

	if !p.expect(token.SEMICOLON) {
		return nil
	}
	return q
}

func (p *Parser) parseTraverse(source string) Statement {
	t := &Traverse{Source: source, Dir: Direction(p.token.Literal)}
	p.nextToken()

	assign, ok := p.parseAssign()
	if !ok {
		return nil
	}
	t.Assign = assign

	if !p.expect(token.SEMICOLON) {
		return nil
	}
	return t
}

func (p *Parser) parseUnion() Statement {
	u := &Union{}
	p.nextToken() // consume (

	if p.check(token.RPAREN) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a statement"))
		return nil
	}
	for !p.check(token.RPAREN) {
		stmt := p.parseStatement(true)
		if stmt == nil {
			return nil
		}
		u.Branches = append(u.Branches, stmt)
	}
	p.nextToken() // consume )

	assign, ok := p.parseAssign()
	if !ok {
		return nil
	}
	u.Assign = assign

	if !p.expect(token.SEMICOLON) {
		return nil
	}
	return u
}

func (p *Parser) parseOut(source string) Statement {
	e := &Emit{Source: source, Geom: GeomNone, Detail: DetailBody}
	p.nextToken() // consume out

	for p.check(token.IDENT) {
		switch lit := p.token.Literal; lit {
		case "geom", "center", "bb":
			e.Geom = GeomMode(lit)
		case "ids", "skel", "body", "tags", "meta":
			e.Detail = Detail(lit)
		default:
			p.addError(fmt.Sprintf(ErrUnknownModifier, lit))
			return nil
		}
		p.nextToken()
	}

	if !p.expect(token.SEMICOLON) {
		return nil
	}
	return e
}

// ---------- Selectors and Filters ----------

func (p *Parser) parseSelector() *Selector {
	sel := &Selector{}
	p.nextToken() // consume [

	if p.check(token.BANG) {
		sel.Not = true
		p.nextToken()
	}

	if !p.check(token.IDENT) && !p.check(token.STRING) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a tag key"))
		return nil
	}
	sel.Key = p.token.Literal
	p.nextToken()

	if p.check(token.RBRACKET) {
		p.nextToken()
		return sel
	}
	if sel.Not {
		// The negation prefix only applies to presence tests.
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), `"]"`))
		return nil
	}

	switch p.token.Type {
	case token.EQ, token.NEQ, token.MATCH, token.NOTMATCH:
		sel.Op = CompareOp(p.token.Literal)
		p.nextToken()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), `"]" or a comparison operator`))
		return nil
	}

	switch p.token.Type {
	case token.IDENT, token.STRING:
		sel.Value = &Value{Raw: p.token.Literal}
	case token.INT, token.FLOAT:
		sel.Value = &Value{Raw: p.token.Literal, IsNumber: true}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a tag value"))
		return nil
	}
	p.nextToken()

	if !p.expect(token.RBRACKET) {
		return nil
	}
	return sel
}

func (p *Parser) parseFilter() Filter {
	p.nextToken() // consume (

	var f Filter
	switch {
	case p.check(token.INT) && p.checkPeek(token.RPAREN):
		f = &IDFilter{ID: p.token.Literal}
		p.nextToken()

	case p.check(token.INT) || p.check(token.FLOAT):
		f = p.parseBBox()

	case p.check(token.IDENT):
		switch p.token.Literal {
		case "poly":
			f = p.parsePoly()
		case "id":
			f = p.parseIDList()
		case "area":
			f = p.parseAreaRef()
		case "around":
			f = p.parseAround()
		default:
			p.addError(fmt.Sprintf(ErrUnknownFilter, p.token.Literal))
			return nil
		}

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a filter"))
		return nil
	}

	if f == nil {
		return nil
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return f
}

// parseBBox parses the four comma-separated bounds: south, west, north, east.
func (p *Parser) parseBBox() Filter {
	bounds := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		if i > 0 && !p.expect(token.COMMA) {
			return nil
		}
		n, ok := p.parseNumber()
		if !ok {
			return nil
		}
		bounds = append(bounds, n)
	}
	return &BBoxFilter{South: bounds[0], West: bounds[1], North: bounds[2], East: bounds[3]}
}

func (p *Parser) parsePoly() Filter {
	p.nextToken() // consume poly
	if !p.expect(token.COLON) {
		return nil
	}
	if !p.check(token.STRING) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a quoted coordinate list"))
		return nil
	}
	f := &PolyFilter{Points: p.token.Literal}
	p.nextToken()
	return f
}

func (p *Parser) parseIDList() Filter {
	p.nextToken() // consume id
	if !p.expect(token.COLON) {
		return nil
	}
	f := &IDListFilter{}
	for {
		if !p.check(token.INT) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "an identifier"))
			return nil
		}
		f.IDs = append(f.IDs, p.token.Literal)
		p.nextToken()
		if !p.check(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return f
}

func (p *Parser) parseAreaRef() Filter {
	p.nextToken() // consume area
	if !p.expect(token.DOT) {
		return nil
	}
	name, ok := p.parseName()
	if !ok {
		return nil
	}
	return &AreaFilter{Name: name}
}

func (p *Parser) parseAround() Filter {
	p.nextToken() // consume around
	if !p.expect(token.DOT) {
		return nil
	}
	name, ok := p.parseName()
	if !ok {
		return nil
	}
	if !p.expect(token.COLON) {
		return nil
	}
	radius, ok := p.parseNumber()
	if !ok {
		return nil
	}
	return &AroundFilter{Name: name, Radius: radius}
}

// ---------- Shared Pieces ----------

// parseAssign parses an optional ->.name suffix.
func (p *Parser) parseAssign() (string, bool) {
	if !p.check(token.ARROW) {
		return "", true
	}
	p.nextToken()
	if !p.expect(token.DOT) {
		return "", false
	}
	return p.parseName()
}

// parseName parses a binding name.
func (p *Parser) parseName() (string, bool) {
	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a binding name"))
		return "", false
	}
	name := p.token.Literal
	p.nextToken()
	return name, true
}

// parseNumber parses an integer or float, preserving its lexical form.
func (p *Parser) parseNumber() (string, bool) {
	if !p.check(token.INT) && !p.check(token.FLOAT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "a number"))
		return "", false
	}
	n := p.token.Literal
	p.nextToken()
	return n, true
}
